package scm

import (
	"context"
	"fmt"
	"time"

	"github.com/ktrysmt/go-bitbucket"
)

// BitbucketBrowser implements RepositoryBrowser with the Bitbucket Cloud
// API. The client is scoped to one workspace (the linked username).
type BitbucketBrowser struct {
	client    *bitbucket.Client
	workspace string
}

// NewBitbucketBrowser creates a browser authenticated with the given
// provider access token, listing repositories of the given workspace.
func NewBitbucketBrowser(token, workspace string) *BitbucketBrowser {
	return &BitbucketBrowser{
		client:    bitbucket.NewOAuthbearerToken(token),
		workspace: workspace,
	}
}

// NewBitbucketBrowserFactory returns a BrowserFactory producing Bitbucket
// browsers.
func NewBitbucketBrowserFactory() BrowserFactory {
	return func(token, username string) RepositoryBrowser {
		return NewBitbucketBrowser(token, username)
	}
}

// ListRepositories implements RepositoryBrowser.
func (b *BitbucketBrowser) ListRepositories(_ context.Context) ([]RepositoryInfo, error) {
	res, err := b.client.Repositories.ListForAccount(&bitbucket.RepositoriesOptions{
		Owner: b.workspace,
	})
	if err != nil {
		return nil, fmt.Errorf("bitbucket: failed to list repositories: %w", err)
	}

	results := make([]RepositoryInfo, 0, len(res.Items))
	for _, repo := range res.Items {
		results = append(results, RepositoryInfo{
			Name:          repo.Slug,
			FullName:      repo.Full_name,
			Owner:         b.workspace,
			DefaultBranch: repo.Mainbranch.Name,
			Language:      repo.Language,
			Private:       repo.Is_private,
		})
	}
	return results, nil
}

// ListCommits implements RepositoryBrowser. The Bitbucket client returns
// untyped JSON for commit listings, so the page is decoded by hand.
func (b *BitbucketBrowser) ListCommits(_ context.Context, owner, repo string, limit int) ([]CommitInfo, error) {
	raw, err := b.client.Repositories.Commits.GetCommits(&bitbucket.CommitsOptions{
		Owner:    owner,
		RepoSlug: repo,
	})
	if err != nil {
		return nil, fmt.Errorf("bitbucket: failed to list commits: %w", err)
	}

	return decodeCommitPage(raw, limit)
}

// decodeCommitPage decodes one page of the Bitbucket commit listing,
// which arrives as untyped JSON: {"values": [{"hash", "message", "date",
// "author": {"raw"}}, ...]}. Entries with an unexpected shape are
// skipped; a malformed date leaves AuthoredAt zero.
func decodeCommitPage(raw interface{}, limit int) ([]CommitInfo, error) {
	page, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("bitbucket: unexpected commit listing shape %T", raw)
	}
	values, ok := page["values"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("bitbucket: commit listing has no values array")
	}

	results := make([]CommitInfo, 0, len(values))
	for _, v := range values {
		if limit > 0 && len(results) >= limit {
			break
		}
		commit, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		info := CommitInfo{
			SHA:     stringField(commit, "hash"),
			Message: stringField(commit, "message"),
		}
		if dateStr := stringField(commit, "date"); dateStr != "" {
			if at, parseErr := time.Parse(time.RFC3339, dateStr); parseErr == nil {
				info.AuthoredAt = at
			}
		}
		if author, ok := commit["author"].(map[string]interface{}); ok {
			info.Author = stringField(author, "raw")
		}
		results = append(results, info)
	}
	return results, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

var _ RepositoryBrowser = (*BitbucketBrowser)(nil)

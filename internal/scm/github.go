package scm

import (
	"context"

	"github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"
)

// GithubBrowser implements RepositoryBrowser with the GitHub REST API.
type GithubBrowser struct {
	client *github.Client
}

// NewGithubBrowser creates a browser authenticated with the given
// provider access token.
func NewGithubBrowser(token string) *GithubBrowser {
	httpClient := oauth2.NewClient(
		context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	)
	return &GithubBrowser{client: github.NewClient(httpClient)}
}

// NewGithubBrowserFactory returns a BrowserFactory producing GitHub
// browsers. The username is unused: GitHub scopes the listing to the
// token's user.
func NewGithubBrowserFactory() BrowserFactory {
	return func(token, _ string) RepositoryBrowser {
		return NewGithubBrowser(token)
	}
}

// ListRepositories implements RepositoryBrowser.
func (g *GithubBrowser) ListRepositories(ctx context.Context) ([]RepositoryInfo, error) {
	opts := github.ListOptions{PerPage: 100}
	var results []RepositoryInfo
	for {
		repos, resp, err := g.client.Repositories.List(ctx, "", &github.RepositoryListOptions{
			ListOptions: opts,
		})
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			if repo == nil {
				continue
			}
			results = append(results, RepositoryInfo{
				Name:          repo.GetName(),
				FullName:      repo.GetFullName(),
				Owner:         repo.GetOwner().GetLogin(),
				DefaultBranch: repo.GetDefaultBranch(),
				Language:      repo.GetLanguage(),
				Private:       repo.GetPrivate(),
				Forks:         repo.GetForksCount(),
				Watchers:      repo.GetWatchersCount(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return results, nil
}

// ListCommits implements RepositoryBrowser.
func (g *GithubBrowser) ListCommits(ctx context.Context, owner, repo string, limit int) ([]CommitInfo, error) {
	commits, _, err := g.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, err
	}

	results := make([]CommitInfo, 0, len(commits))
	for _, c := range commits {
		if c == nil {
			continue
		}
		info := CommitInfo{
			SHA:     c.GetSHA(),
			Message: c.GetCommit().GetMessage(),
		}
		if author := c.GetCommit().GetAuthor(); author != nil {
			info.Author = author.GetName()
			info.AuthoredAt = author.GetDate().Time
		}
		results = append(results, info)
	}
	return results, nil
}

var _ RepositoryBrowser = (*GithubBrowser)(nil)

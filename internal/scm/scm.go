// Package scm provides a narrow capability interface over provider API
// clients. Only the operations this system actually needs are exposed:
// repository listing and commit listing. The raw clients never leak out.
package scm

import (
	"context"
	"time"
)

// RepositoryInfo describes a repository visible to the authenticated user.
type RepositoryInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language,omitempty"`
	Private       bool   `json:"private"`
	Forks         int    `json:"forks"`
	Watchers      int    `json:"watchers"`
}

// CommitInfo describes a single commit on a repository.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	AuthoredAt time.Time `json:"authored_at"`
}

// RepositoryBrowser lists repositories and commits on behalf of one user,
// authenticated with that user's provider token.
type RepositoryBrowser interface {
	// ListRepositories returns all repositories visible to the
	// authenticated user.
	ListRepositories(ctx context.Context) ([]RepositoryInfo, error)

	// ListCommits returns up to limit recent commits of the repository.
	ListCommits(ctx context.Context, owner, repo string, limit int) ([]CommitInfo, error)
}

// BrowserFactory builds a RepositoryBrowser bound to a provider token.
// A factory per provider lets the service layer stay provider-agnostic.
// The username names the account whose repositories are listed; GitHub
// derives it from the token, Bitbucket needs it as the workspace.
type BrowserFactory func(token, username string) RepositoryBrowser

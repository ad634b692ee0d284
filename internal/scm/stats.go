package scm

import "time"

// RepositoryStatistics is the overview payload assembled for a linked
// repository: the repository's shape plus its recent commit activity.
type RepositoryStatistics struct {
	Repository    RepositoryInfo `json:"repository"`
	CommitCount   int            `json:"commit_count"`
	LastCommitSHA string         `json:"last_commit_sha,omitempty"`
	LastCommitBy  string         `json:"last_commit_by,omitempty"`
	LastCommitAt  *time.Time     `json:"last_commit_at,omitempty"`
}

// BuildStatistics aggregates a repository and its recent commits into a
// statistics payload. Commits are expected newest-first, as both provider
// APIs return them.
func BuildStatistics(repo RepositoryInfo, commits []CommitInfo) *RepositoryStatistics {
	stats := &RepositoryStatistics{
		Repository:  repo,
		CommitCount: len(commits),
	}
	if len(commits) > 0 {
		latest := commits[0]
		stats.LastCommitSHA = latest.SHA
		stats.LastCommitBy = latest.Author
		if !latest.AuthoredAt.IsZero() {
			at := latest.AuthoredAt
			stats.LastCommitAt = &at
		}
	}
	return stats
}

// FindRepository returns the repository with the given name from a
// listing, matching on the short name.
func FindRepository(repos []RepositoryInfo, name string) (RepositoryInfo, bool) {
	for _, r := range repos {
		if r.Name == name {
			return r, true
		}
	}
	return RepositoryInfo{}, false
}

package mongodb

import "github.com/cloudteams/developer-services/domain"

const (
	GithubUsersCollection    = "github_users"
	BitbucketUsersCollection = "bitbucket_users"
	ProjectLinksCollection   = "project_links"
)

// UsersCollectionFor maps a provider to its user collection. Each provider
// keeps its own namespace, matching the unique-username invariant.
func UsersCollectionFor(provider domain.Provider) string {
	if provider == domain.ProviderBitbucket {
		return BitbucketUsersCollection
	}
	return GithubUsersCollection
}

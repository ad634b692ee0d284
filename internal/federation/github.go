package federation

import (
	"context"

	"github.com/cloudteams/developer-services/domain"
	"golang.org/x/oauth2"
	githubOAuth2 "golang.org/x/oauth2/github"
)

// GithubEndpoint is the OAuth2 endpoint used for the code exchange.
// Package variable so tests can point it at a local server.
var GithubEndpoint = githubOAuth2.Endpoint

// GitHubExchanger implements CodeExchanger for GitHub.
type GitHubExchanger struct {
	clientID     string
	clientSecret string
}

// NewGitHubExchanger creates a new GitHubExchanger.
func NewGitHubExchanger(clientID, clientSecret string) *GitHubExchanger {
	return &GitHubExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (g *GitHubExchanger) Provider() domain.Provider {
	return domain.ProviderGithub
}

// ExchangeCode implements CodeExchanger.
func (g *GitHubExchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	cfg := &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint:     GithubEndpoint,
	}
	return exchange(ctx, domain.ProviderGithub, cfg, code)
}

var _ CodeExchanger = (*GitHubExchanger)(nil)

package federation

import (
	"context"

	"github.com/cloudteams/developer-services/domain"
	"golang.org/x/oauth2"
	bitbucketOAuth2 "golang.org/x/oauth2/bitbucket"
)

// BitbucketEndpoint is the OAuth2 endpoint used for the code exchange.
// Package variable so tests can point it at a local server.
var BitbucketEndpoint = bitbucketOAuth2.Endpoint

// BitbucketExchanger implements CodeExchanger for Bitbucket.
type BitbucketExchanger struct {
	clientID     string
	clientSecret string
}

// NewBitbucketExchanger creates a new BitbucketExchanger.
func NewBitbucketExchanger(clientID, clientSecret string) *BitbucketExchanger {
	return &BitbucketExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (b *BitbucketExchanger) Provider() domain.Provider {
	return domain.ProviderBitbucket
}

// ExchangeCode implements CodeExchanger.
func (b *BitbucketExchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	cfg := &oauth2.Config{
		ClientID:     b.clientID,
		ClientSecret: b.clientSecret,
		Endpoint:     BitbucketEndpoint,
	}
	return exchange(ctx, domain.ProviderBitbucket, cfg, code)
}

var _ CodeExchanger = (*BitbucketExchanger)(nil)

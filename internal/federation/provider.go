// Package federation exchanges OAuth authorization codes with external
// code-hosting providers. It owns no persistence: callers hand it a code
// and get back the provider access token or a typed failure.
package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudteams/developer-services/domain"
	"golang.org/x/oauth2"
)

var ErrProviderMisconfigured = errors.New("provider is misconfigured")

// ExchangeError is a provider-side rejection of an authorization code.
// It carries the human-readable reason surfaced to the caller.
type ExchangeError struct {
	Provider domain.Provider
	Reason   string
	Err      error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s code exchange failed: %s", e.Provider, e.Reason)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// CodeExchanger exchanges an authorization code for a provider access
// token. Implementations do not retry: a failed exchange aborts the whole
// login attempt, and any retry policy belongs to the caller.
type CodeExchanger interface {
	// Provider returns the provider this exchanger talks to.
	Provider() domain.Provider

	// ExchangeCode calls the provider's token endpoint with the given
	// authorization code. On success it returns the provider access
	// token; on failure an *ExchangeError.
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// exchange runs the oauth2 code exchange shared by all providers.
func exchange(ctx context.Context, provider domain.Provider, cfg *oauth2.Config, code string) (string, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return "", ErrProviderMisconfigured
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", &ExchangeError{
			Provider: provider,
			Reason:   err.Error(),
			Err:      err,
		}
	}
	if token.AccessToken == "" {
		return "", &ExchangeError{
			Provider: provider,
			Reason:   "provider returned an empty access token",
		}
	}
	return token.AccessToken, nil
}

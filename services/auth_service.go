package services

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/cloudteams/developer-services/errors"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/metrics"
	"github.com/cloudteams/developer-services/internal/rendezvous"
	"github.com/rs/zerolog/log"
)

// AuthService runs the login/link flow: exchange the authorization code
// with the provider, upsert the user account, mint the internal bearer
// token, and persist it. Each request walks these steps once; any failure
// aborts without compensation for the steps already done.
type AuthService struct {
	providers ProviderSet
	tokens    *TokenService
	waiter    *rendezvous.Waiter
}

// NewAuthService creates a new AuthService.
func NewAuthService(providers ProviderSet, tokens *TokenService, waiter *rendezvous.Waiter) *AuthService {
	return &AuthService{
		providers: providers,
		tokens:    tokens,
		waiter:    waiter,
	}
}

// Login exchanges the authorization code and persists the resulting
// tokens onto the user record for the username. On success rendezvous
// waiters for the username are woken; the minted token itself is only
// retrievable through the rendezvous.
func (s *AuthService) Login(ctx context.Context, provider domain.Provider, code, username, clientAddress string) error {
	res, ok := s.providers.Resources(provider)
	if !ok {
		return apierrors.NewProviderExchange(fmt.Sprintf("provider %q is not configured", provider))
	}

	providerToken, err := res.Exchanger.ExchangeCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("provider", provider.String()).Str("username", username).
			Msg("Failed to get access token from provider")
		s.countLoginFailure(provider, "exchange")
		return apierrors.NewProviderExchange(err.Error())
	}

	user, err := s.upsertUser(ctx, res, username, providerToken)
	if err != nil {
		s.countLoginFailure(provider, "storage")
		return err
	}

	internalToken, err := s.tokens.Mint(ctx, provider, clientAddress, username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Could not create internal access token")
		s.countLoginFailure(provider, "mint")
		return apierrors.NewStorage("Could not create Access Token...")
	}

	// Rotate both credentials on every login, pre-existing user or not.
	user.ProviderToken = providerToken
	user.InternalToken = internalToken
	user.Synchronized = true
	if err := res.Users.UpdateUser(ctx, user); err != nil {
		// The provider exchange already succeeded; it is not rolled
		// back. Rendezvous for this user will time out rather than hang.
		log.Error().Err(err).Str("username", username).Msg("Could not update user in CloudTeams database")
		s.countLoginFailure(provider, "storage")
		return apierrors.NewStorage("Could not update user to Cloudteams Database...")
	}

	log.Info().Str("provider", provider.String()).Str("username", username).
		Msg("Login complete, internal token persisted")
	if metrics.LoginSuccessTotal != nil {
		metrics.LoginSuccessTotal.WithLabelValues(provider.String()).Inc()
	}

	s.waiter.Notify(username)
	return nil
}

// upsertUser finds the account for the username, creating it on first
// login. A duplicate-key failure on insert means a concurrent request
// created the row first, so the lookup is retried once instead of
// surfacing a hard failure.
func (s *AuthService) upsertUser(ctx context.Context, res *ProviderResources, username, providerToken string) (*domain.UserAccount, error) {
	user, err := res.Users.GetUserByUsername(ctx, username)
	if err == nil {
		log.Info().Str("username", username).Str("id", user.ID).Msg("User already exists")
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, apierrors.NewStorage("Could not read user from Cloudteams Database...")
	}

	log.Info().Str("username", username).Msg("Creating new user")
	user = &domain.UserAccount{
		Username:      username,
		ProviderToken: providerToken,
		Synchronized:  true,
	}
	createErr := res.Users.CreateUser(ctx, user)
	if createErr == nil {
		return user, nil
	}
	if errors.Is(createErr, domain.ErrDuplicateKey) {
		// Someone else just created this user; the row now exists.
		user, err = res.Users.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, apierrors.NewStorage("Could not read user from Cloudteams Database...")
		}
		return user, nil
	}

	log.Error().Err(createErr).Str("username", username).Msg("Could not create user in CloudTeams database")
	return nil, apierrors.NewStorage("Could not create user to Cloudteams Database...")
}

func (s *AuthService) countLoginFailure(provider domain.Provider, reason string) {
	if metrics.LoginFailureTotal != nil {
		metrics.LoginFailureTotal.WithLabelValues(provider.String(), reason).Inc()
	}
}

// NewStoreLookup builds the rendezvous lookup over the provider user
// stores. The rendezvous endpoint carries no provider segment, so the
// lookup checks each namespace and returns the first internal token
// found.
func NewStoreLookup(providers ProviderSet) rendezvous.LookupFunc {
	return func(ctx context.Context, username string) (string, bool, error) {
		var lastErr error
		for _, res := range providers {
			user, err := res.Users.GetUserByUsername(ctx, username)
			if err != nil {
				if !errors.Is(err, domain.ErrUserNotFound) {
					lastErr = err
				}
				continue
			}
			if user.HasInternalToken() {
				return user.InternalToken, true, nil
			}
		}
		return "", false, lastErr
	}
}

package services

import (
	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/federation"
	"github.com/cloudteams/developer-services/internal/scm"
)

// ProviderResources bundles the per-provider collaborators: the user
// store for the provider's namespace, the code exchanger, and the
// repository browser factory.
type ProviderResources struct {
	Provider  domain.Provider
	Users     domain.UserRepository
	Exchanger federation.CodeExchanger
	Browsers  scm.BrowserFactory
}

// ProviderSet maps providers to their resources.
type ProviderSet map[domain.Provider]*ProviderResources

// Resources returns the resources for a provider.
func (s ProviderSet) Resources(p domain.Provider) (*ProviderResources, bool) {
	r, ok := s[p]
	return r, ok
}

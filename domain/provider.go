package domain

import "fmt"

// Provider identifies an external code-hosting platform that issues
// OAuth tokens and hosts the repositories users link to projects.
type Provider string

const (
	ProviderGithub    Provider = "github"
	ProviderBitbucket Provider = "bitbucket"
)

// ParseProvider validates a provider path segment.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderGithub, ProviderBitbucket:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

func (p Provider) String() string {
	return string(p)
}

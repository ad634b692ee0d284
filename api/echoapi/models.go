package echoapi

import (
	"fmt"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/scm"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFail    = "FAIL"
)

// StatusResponse is the JSON body of the token and link endpoints.
// Logical failures ride in the code field with HTTP 200; clients inspect
// code, not the status line.
type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

// OverviewResponse is the JSON body of the repository endpoint. Fragment
// names the view fragment the legacy front end renders; the payload
// fields accompany it depending on link state.
type OverviewResponse struct {
	Fragment     string                    `json:"fragment"`
	Repositories []scm.RepositoryInfo      `json:"repositories,omitempty"`
	Statistics   *scm.RepositoryStatistics `json:"statistics,omitempty"`
}

// fragment renders a legacy view fragment identifier, e.g.
// "github::github-authentication".
func fragment(provider domain.Provider, name string) string {
	return fmt.Sprintf("%s::%s-%s", provider, provider, name)
}

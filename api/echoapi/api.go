// Package echoapi exposes the CloudTeams developer-services HTTP surface.
// The wire shapes mirror the legacy platform contract: logical failures
// of the token and link endpoints travel as code=FAIL bodies under HTTP
// 200, and page-rendering endpoints answer with view fragment
// identifiers.
package echoapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apierrors "github.com/cloudteams/developer-services/errors"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/rendezvous"
	"github.com/cloudteams/developer-services/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// API holds the handler dependencies.
type API struct {
	auth     *services.AuthService
	tokens   *services.RendezvousService
	projects *services.ProjectService
}

// NewAPI initializes the API.
func NewAPI(auth *services.AuthService, tokens *services.RendezvousService, projects *services.ProjectService) *API {
	return &API{
		auth:     auth,
		tokens:   tokens,
		projects: projects,
	}
}

// RegisterRoutes registers the developer-services routes.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/:provider/auth", a.AuthHandler)
	e.POST("/api/v1/auth/token", a.TokenHandler)
	e.POST("/api/v1/:provider/add", a.AddRepositoryHandler)
	e.POST("/api/v1/:provider/repository", a.RepositoryHandler)
}

// AuthHandler handles the OAuth redirect: it exchanges the authorization
// code, upserts the user, and persists a freshly minted internal token.
// The token is not returned here; a separate client retrieves it through
// the token rendezvous.
func (a *API) AuthHandler(c echo.Context) error {
	provider, err := domain.ParseProvider(c.Param("provider"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	code := c.QueryParam("code")
	username := c.QueryParam("username")

	log.Info().Str("ip", c.RealIP()).Str("provider", provider.String()).
		Str("username", username).Msg("Provider auth request")

	if code == "" || username == "" {
		return c.String(http.StatusBadRequest, "code and username are required")
	}

	if err := a.auth.Login(c.Request().Context(), provider, code, username, c.RealIP()); err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Kind {
			case apierrors.KindProviderExchange:
				return c.String(http.StatusBadRequest, apiErr.Message)
			default:
				return c.String(http.StatusInternalServerError, apiErr.Message)
			}
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.String(http.StatusOK, fragment(provider, "authentication"))
}

// TokenHandler is the token rendezvous: it blocks until the internal
// token minted by a concurrent login appears, up to the fixed attempt
// budget. The HTTP status is 200 for both outcomes; callers inspect the
// code field.
func (a *API) TokenHandler(c echo.Context) error {
	username := c.FormValue("username")
	if username == "" {
		return c.String(http.StatusBadRequest, "username is required")
	}

	token, err := a.tokens.AwaitToken(c.Request().Context(), username)
	if err != nil {
		var timeoutErr *rendezvous.TimeoutError
		if errors.As(err, &timeoutErr) {
			return c.JSON(http.StatusOK, StatusResponse{
				Code:    StatusFail,
				Message: fmt.Sprintf("Could not find access token for user: %s", username),
			})
		}
		// Context cancellation: the caller is gone, the response is moot.
		return err
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Code:  StatusSuccess,
		Token: "Bearer " + token,
	})
}

// AddRepositoryHandler assigns a provider repository to a CloudTeams
// project. The first assignment for a project id wins.
func (a *API) AddRepositoryHandler(c echo.Context) error {
	if _, err := domain.ParseProvider(c.Param("provider")); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	principal, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusOK, StatusResponse{Code: StatusFail, Message: "User is not authorized"})
	}

	repositoryName := c.FormValue("reponame")
	if repositoryName == "" {
		return c.JSON(http.StatusOK, StatusResponse{Code: StatusFail, Message: "Repository name is empty."})
	}

	projectID, err := strconv.ParseInt(c.FormValue("project_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusOK, StatusResponse{Code: StatusFail, Message: "Invalid project id."})
	}

	message, err := a.projects.AddLink(c.Request().Context(), principal, projectID, repositoryName)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusOK, StatusResponse{Code: StatusFail, Message: "User does not exist"})
		}
		log.Error().Err(err).Int64("project_id", projectID).Msg("Add repository failed")
		return c.JSON(http.StatusOK, StatusResponse{Code: StatusFail, Message: "Could not assign repository."})
	}

	return c.JSON(http.StatusOK, StatusResponse{Code: StatusSuccess, Message: message})
}

// RepositoryHandler reports the repository state for a project: a
// sign-in fragment without auth, the user's repositories when no link
// exists, or statistics for the linked repository.
func (a *API) RepositoryHandler(c echo.Context) error {
	provider, err := domain.ParseProvider(c.Param("provider"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	principal, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		log.Warn().Str("provider", provider.String()).Msg("Unauthorized repository info request")
		return c.JSON(http.StatusOK, OverviewResponse{Fragment: fragment(provider, "no-auth")})
	}

	// An absent or unparsable project_id defaults to 0, which matches no
	// link and falls through to the repository listing.
	projectID, err := strconv.ParseInt(c.QueryParam("project_id"), 10, 64)
	if err != nil {
		projectID = 0
	}

	overview, err := a.projects.Overview(c.Request().Context(), principal, projectID)
	if err != nil {
		log.Error().Err(err).Int64("project_id", projectID).Msg("Repository overview failed")
		return c.JSON(http.StatusOK, OverviewResponse{Fragment: fragment(provider, "error")})
	}

	switch overview.State {
	case services.OverviewNoProject:
		return c.JSON(http.StatusOK, OverviewResponse{
			Fragment:     fragment(provider, "no-project"),
			Repositories: overview.Repositories,
		})
	case services.OverviewProject:
		return c.JSON(http.StatusOK, OverviewResponse{
			Fragment:   fragment(provider, "auth-project"),
			Statistics: overview.Statistics,
		})
	default:
		return c.JSON(http.StatusOK, OverviewResponse{Fragment: fragment(provider, "error")})
	}
}

package services

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/cloudteams/developer-services/errors"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/metrics"
	"github.com/cloudteams/developer-services/internal/scm"
	"github.com/rs/zerolog/log"
)

// OverviewState tells the repository endpoint which fragment to render.
type OverviewState string

const (
	// OverviewNoProject means no repository is linked to the project yet;
	// the overview carries the user's repositories to pick from.
	OverviewNoProject OverviewState = "no-project"
	// OverviewProject means the linked repository was found upstream and
	// statistics were assembled.
	OverviewProject OverviewState = "project"
	// OverviewRepositoryGone means a link exists but the repository no
	// longer exists (or is no longer visible) at the provider.
	OverviewRepositoryGone OverviewState = "repository-gone"
)

// RepositoryOverview is the outcome of the repository-info operation.
type RepositoryOverview struct {
	State        OverviewState
	Repositories []scm.RepositoryInfo
	Statistics   *scm.RepositoryStatistics
}

// commitSampleSize bounds the commit listing used for statistics.
const commitSampleSize = 100

// ProjectService links CloudTeams projects to provider repositories and
// assembles repository overviews for linked projects.
type ProjectService struct {
	providers ProviderSet
	links     domain.ProjectRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(providers ProviderSet, links domain.ProjectRepository) *ProjectService {
	return &ProjectService{
		providers: providers,
		links:     links,
	}
}

// AddLink assigns a repository to a project for the authenticated user.
// The first write for a project id wins: a second call for the same id is
// a no-op reported as success with the original assignment left intact.
func (s *ProjectService) AddLink(ctx context.Context, principal *domain.Principal, projectID int64, repositoryName string) (string, error) {
	res, ok := s.providers.Resources(principal.Provider)
	if !ok {
		return "", fmt.Errorf("provider %q is not configured", principal.Provider)
	}

	user, err := res.Users.GetUserByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.countLink(principal.Provider, "no-user")
			return "", domain.ErrUserNotFound
		}
		return "", apierrors.NewStorage("Could not read user from Cloudteams Database...")
	}

	_, err = s.links.GetLinkByProjectID(ctx, projectID)
	if err == nil {
		// First write wins, repeat calls are idempotent.
		s.countLink(principal.Provider, "exists")
		return fmt.Sprintf("Repository: %s has been assigned!", repositoryName), nil
	}
	if !errors.Is(err, domain.ErrProjectNotFound) {
		return "", apierrors.NewStorage("Could not read project from Cloudteams Database...")
	}

	link := &domain.ProjectLink{
		ProjectID:      projectID,
		Provider:       principal.Provider,
		RepositoryName: repositoryName,
		UserID:         user.ID,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			// Lost the race to a concurrent add; the earlier link stands.
			s.countLink(principal.Provider, "exists")
			return fmt.Sprintf("Repository: %s has been assigned!", repositoryName), nil
		}
		log.Error().Err(err).Int64("project_id", projectID).Msg("Could not store project link")
		return "", apierrors.NewStorage("Could not store project to Cloudteams Database...")
	}

	log.Info().Int64("project_id", projectID).Str("repository", repositoryName).
		Str("username", principal.Username).Msg("Repository assigned to project")
	s.countLink(principal.Provider, "created")
	return fmt.Sprintf("Repository: %s has been assigned!", repositoryName), nil
}

// Overview reports the repository state for a project: the user's
// repositories when nothing is linked yet, or statistics for the linked
// repository.
func (s *ProjectService) Overview(ctx context.Context, principal *domain.Principal, projectID int64) (*RepositoryOverview, error) {
	res, ok := s.providers.Resources(principal.Provider)
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", principal.Provider)
	}

	user, err := res.Users.GetUserByUsername(ctx, principal.Username)
	if err != nil {
		return nil, err
	}

	browser := res.Browsers(user.ProviderToken, user.Username)
	repos, err := browser.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	link, err := s.links.GetLinkByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return &RepositoryOverview{
				State:        OverviewNoProject,
				Repositories: repos,
			}, nil
		}
		return nil, err
	}

	repo, found := scm.FindRepository(repos, link.RepositoryName)
	if !found {
		return &RepositoryOverview{State: OverviewRepositoryGone}, nil
	}

	owner := repo.Owner
	if owner == "" {
		owner = user.Username
	}
	commits, err := browser.ListCommits(ctx, owner, repo.Name, commitSampleSize)
	if err != nil {
		log.Warn().Err(err).Str("repository", repo.Name).
			Msg("Failed to list commits, statistics will carry none")
		commits = nil
	}

	return &RepositoryOverview{
		State:      OverviewProject,
		Statistics: scm.BuildStatistics(repo, commits),
	}, nil
}

func (s *ProjectService) countLink(provider domain.Provider, outcome string) {
	if metrics.ProjectLinksTotal != nil {
		metrics.ProjectLinksTotal.WithLabelValues(provider.String(), outcome).Inc()
	}
}

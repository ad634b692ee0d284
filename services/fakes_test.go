package services

import (
	"context"
	"sync"
	"time"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/rendezvous"
	"github.com/cloudteams/developer-services/internal/scm"
)

// fakeUserRepo is an in-memory domain.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.UserAccount
	seq   int

	failCreate error
	failUpdate error
	// missNextLookups makes the next n lookups report ErrUserNotFound,
	// simulating a row that lands between lookup and insert.
	missNextLookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.UserAccount)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *domain.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, exists := r.users[user.Username]; exists {
		return domain.ErrDuplicateKey
	}
	r.seq++
	user.ID = "id-" + user.Username
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.Username] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, user *domain.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	existing, ok := r.users[user.Username]
	if !ok {
		return domain.ErrUserNotFound
	}
	existing.ProviderToken = user.ProviderToken
	existing.InternalToken = user.InternalToken
	existing.Synchronized = user.Synchronized
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missNextLookups > 0 {
		r.missNextLookups--
		return nil, domain.ErrUserNotFound
	}
	user, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *fakeUserRepo) seed(user *domain.UserAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Username] = user
}

// fakeExchanger returns a fixed token or error.
type fakeExchanger struct {
	provider domain.Provider
	token    string
	err      error
	calls    int
}

func (e *fakeExchanger) Provider() domain.Provider {
	return e.provider
}

func (e *fakeExchanger) ExchangeCode(_ context.Context, _ string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.token, nil
}

// fakeLinkRepo is an in-memory domain.ProjectRepository.
type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[int64]*domain.ProjectLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[int64]*domain.ProjectLink)}
}

func (r *fakeLinkRepo) CreateLink(_ context.Context, link *domain.ProjectLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.links[link.ProjectID]; exists {
		return domain.ErrDuplicateKey
	}
	link.ID = "link"
	clone := *link
	r.links[link.ProjectID] = &clone
	return nil
}

func (r *fakeLinkRepo) GetLinkByProjectID(_ context.Context, projectID int64) (*domain.ProjectLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	clone := *link
	return &clone, nil
}

// fakeBrowser serves canned repositories and commits.
type fakeBrowser struct {
	repos   []scm.RepositoryInfo
	commits []scm.CommitInfo
	err     error
}

func (b *fakeBrowser) ListRepositories(_ context.Context) ([]scm.RepositoryInfo, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.repos, nil
}

func (b *fakeBrowser) ListCommits(_ context.Context, _, _ string, limit int) ([]scm.CommitInfo, error) {
	if b.err != nil {
		return nil, b.err
	}
	if limit > 0 && len(b.commits) > limit {
		return b.commits[:limit], nil
	}
	return b.commits, nil
}

func fixedBrowserFactory(b *fakeBrowser) scm.BrowserFactory {
	return func(_, _ string) scm.RepositoryBrowser { return b }
}

// newFastWaiter polls on a millisecond interval so tests never wait out
// the real 2s budget.
func newFastWaiter(providers ProviderSet, attempts int) *rendezvous.Waiter {
	return rendezvous.NewWaiter(NewStoreLookup(providers), time.Millisecond, attempts)
}

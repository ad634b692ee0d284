package domain

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned by lookups when no account exists for
	// the given username in the provider namespace.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateKey is returned by inserts that violate a unique index.
	// Callers creating users should treat it as "row now exists" and
	// retry the lookup rather than failing the request.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrProjectNotFound is returned when no link exists for a project id.
	ErrProjectNotFound = errors.New("project link not found")
)

// UserRepository stores user accounts for a single provider namespace.
type UserRepository interface {
	// CreateUser inserts a new account. Returns ErrDuplicateKey when an
	// account with the same username already exists.
	CreateUser(ctx context.Context, user *UserAccount) error

	// UpdateUser replaces the mutable fields of an existing account.
	UpdateUser(ctx context.Context, user *UserAccount) error

	// GetUserByUsername returns the account for the username, or
	// ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*UserAccount, error)
}

// ProjectRepository stores project-to-repository links.
type ProjectRepository interface {
	// CreateLink inserts a new link. Returns ErrDuplicateKey when a link
	// for the same project id already exists.
	CreateLink(ctx context.Context, link *ProjectLink) error

	// GetLinkByProjectID returns the link for the project id, or
	// ErrProjectNotFound.
	GetLinkByProjectID(ctx context.Context, projectID int64) (*ProjectLink, error)
}

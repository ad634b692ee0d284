package domain

import "time"

// UserAccount represents a platform user linked to one external provider.
// Each provider keeps its own namespace: the same username may exist once
// under github and once under bitbucket as two independent accounts.
type UserAccount struct {
	ID            string    `bson:"_id,omitempty"`
	Username      string    `bson:"username"`
	ProviderToken string    `bson:"provider_token"`
	InternalToken string    `bson:"internal_token,omitempty"`
	Synchronized  bool      `bson:"is_synchronized"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// HasInternalToken reports whether a login cycle has completed and minted
// a bearer token for this account since the last reset.
func (u *UserAccount) HasInternalToken() bool {
	return u != nil && u.InternalToken != ""
}

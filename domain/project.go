package domain

import "time"

// ProjectLink associates a CloudTeams project with a provider repository
// owned by a linked user account. Links are created once and never
// overwritten: the first write for a project id wins.
type ProjectLink struct {
	ID             string    `bson:"_id,omitempty"`
	ProjectID      int64     `bson:"project_id"`
	Provider       Provider  `bson:"provider"`
	RepositoryName string    `bson:"repository_name"`
	UserID         string    `bson:"user_id"`
	CreatedAt      time.Time `bson:"created_at"`
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudteams/developer-services/domain"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProjectRepository implements domain.ProjectRepository. The unique index
// on project_id is what makes the first-write-wins link contract hold
// under concurrent add requests.
type ProjectRepository struct {
	links *mongo.Collection
}

// NewProjectRepository creates the project link repository and ensures
// its indexes.
func NewProjectRepository(ctx context.Context, db *mongo.Database) (*ProjectRepository, error) {
	repo := &ProjectRepository{
		links: db.Collection(ProjectLinksCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create project link indexes")
	}
	return repo, nil
}

func (r *ProjectRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(false),
		},
	}

	_, err := r.links.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes())
	if err != nil {
		return fmt.Errorf("failed to create indexes for project links collection: %w", err)
	}
	return nil
}

// CreateLink inserts a new link. Returns domain.ErrDuplicateKey when a
// link for the same project id already exists.
func (r *ProjectRepository) CreateLink(ctx context.Context, link *domain.ProjectLink) error {
	if link.ID == "" {
		link.ID = NewObjectID()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err := r.links.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		log.Error().Err(err).Int64("project_id", link.ProjectID).Msg("Error creating project link in MongoDB")
		return err
	}
	return nil
}

// GetLinkByProjectID retrieves the link for a project id.
func (r *ProjectRepository) GetLinkByProjectID(ctx context.Context, projectID int64) (*domain.ProjectLink, error) {
	var link domain.ProjectLink
	err := r.links.FindOne(ctx, bson.M{"project_id": projectID}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		log.Error().Err(err).Int64("project_id", projectID).Msg("Error getting project link from MongoDB")
		return nil, err
	}
	return &link, nil
}

var _ domain.ProjectRepository = (*ProjectRepository)(nil)

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

// UserRepository implements domain.UserRepository on a per-provider
// user collection.
type UserRepository struct {
	provider domain.Provider
	users    *mongo.Collection
}

// NewUserRepository creates a user repository for the given provider
// namespace and ensures its indexes.
func NewUserRepository(ctx context.Context, db *mongo.Database, provider domain.Provider) (*UserRepository, error) {
	repo := &UserRepository{
		provider: provider,
		users:    db.Collection(UsersCollectionFor(provider)),
	}
	if err := repo.createIndexes(ctx); err != nil {
		// Index creation commonly fails when compatible indexes already
		// exist. The unique constraint is what matters, so warn and keep going.
		log.Warn().Err(err).Str("provider", provider.String()).Msg("Failed to create user indexes")
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.users.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes())
	if err != nil {
		return fmt.Errorf("failed to create indexes for %s users collection: %w", r.provider, err)
	}
	return nil
}

// CreateUser inserts a new account. A unique-index violation on username
// is reported as domain.ErrDuplicateKey so the caller can treat it as
// "row now exists".
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.UserAccount) error {
	if user.ID == "" {
		user.ID = NewObjectID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		log.Error().Err(err).Str("username", user.Username).Str("provider", r.provider.String()).
			Msg("Error creating user in MongoDB")
		return err
	}
	return nil
}

// UpdateUser replaces the mutable fields of an existing account.
func (r *UserRepository) UpdateUser(ctx context.Context, user *domain.UserAccount) error {
	user.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"provider_token":  user.ProviderToken,
		"internal_token":  user.InternalToken,
		"is_synchronized": user.Synchronized,
		"updated_at":      user.UpdatedAt,
	}}

	result, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		log.Error().Err(err).Str("id", user.ID).Msg("Error updating user in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetUserByUsername retrieves an account by its unique username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		log.Error().Err(err).Str("username", username).Msg("Error getting user by username from MongoDB")
		return nil, err
	}
	return &user, nil
}

var _ domain.UserRepository = (*UserRepository)(nil)

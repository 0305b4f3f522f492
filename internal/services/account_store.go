package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/copper-mobile/app-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountStore persists customer accounts keyed by phone
type AccountStore interface {
	AccountLookup
	Create(ctx context.Context, user *models.User) error
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
}

// MongoAccountStore is an AccountStore backed by the users collection
type MongoAccountStore struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoAccountStore creates a new MongoDB backed account store
func NewMongoAccountStore(collection *mongo.Collection, timeout time.Duration) *MongoAccountStore {
	return &MongoAccountStore{collection: collection, timeout: timeout}
}

func (s *MongoAccountStore) Exists(ctx context.Context, phone string) (bool, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "count", s.collection.Name())
	defer span.End()

	count, err := utils.CountDocumentsWithTimeout(ctx, s.collection, bson.M{"phone": phone}, s.timeout)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("user_exists", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("user_exists", "success").Inc()
	return count > 0, nil
}

// Create inserts user and sets its ID. A duplicate phone or email is
// reported as models.ErrConflict.
func (s *MongoAccountStore) Create(ctx context.Context, user *models.User) error {
	ctx, span := utils.TraceDatabaseOperation(ctx, "insert", s.collection.Name())
	defer span.End()

	result, err := utils.InsertOneWithTimeout(ctx, s.collection, user, s.timeout)
	if mongo.IsDuplicateKeyError(err) {
		observability.DatabaseOperations.WithLabelValues("user_insert", "conflict").Inc()
		return fmt.Errorf("%w: account already exists", models.ErrConflict)
	}
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("user_insert", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to insert account: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	observability.DatabaseOperations.WithLabelValues("user_insert", "success").Inc()
	return nil
}

// FindByPhone returns the account for phone or models.ErrNotFound
func (s *MongoAccountStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "find", s.collection.Name())
	defer span.End()

	var user models.User
	err := utils.FindOneWithTimeout(ctx, s.collection, bson.M{"phone": phone}, &user, s.timeout)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.DatabaseOperations.WithLabelValues("user_find", "miss").Inc()
		return nil, fmt.Errorf("%w: account not found", models.ErrNotFound)
	}
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("user_find", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("user_find", "success").Inc()
	return &user, nil
}

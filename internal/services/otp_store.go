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
	"go.mongodb.org/mongo-driver/mongo"
)

// OTPStore persists the single verification record kept per phone
type OTPStore interface {
	// Find returns the record for phone, or nil when there is none.
	Find(ctx context.Context, phone string) (*models.OTPRecord, error)
	// SavePending replaces whatever record phone has with a pending one.
	SavePending(ctx context.Context, record *models.OTPRecord) error
	// MarkVerified replaces the pending record holding code with the verified
	// shape. It reports false when that pending record no longer exists.
	MarkVerified(ctx context.Context, phone, code string, verifiedAt time.Time) (bool, error)
	// DeletePending removes the pending record for phone holding code.
	DeletePending(ctx context.Context, phone, code string) error
	// Delete removes every record for phone.
	Delete(ctx context.Context, phone string) (int64, error)
	// DeleteExpired removes pending records whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MongoOTPStore is an OTPStore backed by a MongoDB collection with a unique
// index on phone.
type MongoOTPStore struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoOTPStore creates a new MongoDB backed OTP store
func NewMongoOTPStore(collection *mongo.Collection, timeout time.Duration) *MongoOTPStore {
	return &MongoOTPStore{collection: collection, timeout: timeout}
}

func (s *MongoOTPStore) Find(ctx context.Context, phone string) (*models.OTPRecord, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "find", s.collection.Name())
	defer span.End()

	var record models.OTPRecord
	err := utils.FindOneWithTimeout(ctx, s.collection, bson.M{"phone": phone}, &record, s.timeout)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.DatabaseOperations.WithLabelValues("otp_find", "miss").Inc()
		return nil, nil
	}
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_find", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return nil, fmt.Errorf("failed to find otp record: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_find", "success").Inc()
	return &record, nil
}

func (s *MongoOTPStore) SavePending(ctx context.Context, record *models.OTPRecord) error {
	ctx, span := utils.TraceDatabaseOperation(ctx, "upsert", s.collection.Name())
	defer span.End()

	filter := bson.M{"phone": record.Phone}
	_, err := utils.ReplaceOneWithTimeout(ctx, s.collection, filter, record, true, s.timeout)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts for the same phone raced on the unique index; the
		// document exists now, so a plain replace succeeds.
		_, err = utils.ReplaceOneWithTimeout(ctx, s.collection, filter, record, true, s.timeout)
	}
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_upsert", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to save pending otp record: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_upsert", "success").Inc()
	return nil
}

func (s *MongoOTPStore) MarkVerified(ctx context.Context, phone, code string, verifiedAt time.Time) (bool, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "replace", s.collection.Name())
	defer span.End()

	filter := bson.M{"phone": phone, "code": code, "verified": bson.M{"$ne": true}}
	result, err := utils.ReplaceOneWithTimeout(ctx, s.collection, filter, models.NewVerifiedOTP(phone, verifiedAt), false, s.timeout)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_verify", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return false, fmt.Errorf("failed to mark otp record verified: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_verify", "success").Inc()
	return result.MatchedCount == 1, nil
}

func (s *MongoOTPStore) DeletePending(ctx context.Context, phone, code string) error {
	ctx, span := utils.TraceDatabaseOperation(ctx, "delete", s.collection.Name())
	defer span.End()

	_, err := utils.DeleteOneWithTimeout(ctx, s.collection, bson.M{"phone": phone, "code": code}, s.timeout)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_delete", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to delete pending otp record: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_delete", "success").Inc()
	return nil
}

func (s *MongoOTPStore) Delete(ctx context.Context, phone string) (int64, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "delete_many", s.collection.Name())
	defer span.End()

	result, err := utils.DeleteManyWithTimeout(ctx, s.collection, bson.M{"phone": phone}, s.timeout)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_delete", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return 0, fmt.Errorf("failed to delete otp records: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_delete", "success").Inc()
	return result.DeletedCount, nil
}

func (s *MongoOTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := utils.TraceDatabaseOperation(ctx, "sweep", s.collection.Name())
	defer span.End()

	filter := bson.M{
		"verified":   bson.M{"$ne": true},
		"expires_at": bson.M{"$lt": now},
	}
	result, err := utils.DeleteManyWithTimeout(ctx, s.collection, filter, s.timeout)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("otp_sweep", "error").Inc()
		utils.RecordErrorInSpan(span, err, nil)
		return 0, fmt.Errorf("failed to sweep expired otp records: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("otp_sweep", "success").Inc()
	utils.AddSpanAttribute(span, "otp.swept", result.DeletedCount)
	return result.DeletedCount, nil
}

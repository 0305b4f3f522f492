package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultQueryTimeout is the default timeout for MongoDB queries
const DefaultQueryTimeout = 5 * time.Second

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// FindOneWithTimeout performs a MongoDB FindOne operation with timeout
func FindOneWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, result interface{}, timeout time.Duration) error {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	return collection.FindOne(ctx, filter).Decode(result)
}

// ReplaceOneWithTimeout performs a MongoDB ReplaceOne operation with timeout
func ReplaceOneWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, replacement interface{}, upsert bool, timeout time.Duration) (*mongo.UpdateResult, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	opts := options.Replace().SetUpsert(upsert)
	return collection.ReplaceOne(ctx, filter, replacement, opts)
}

// InsertOneWithTimeout performs a MongoDB InsertOne operation with timeout
func InsertOneWithTimeout(ctx context.Context, collection *mongo.Collection, document interface{}, timeout time.Duration) (*mongo.InsertOneResult, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	return collection.InsertOne(ctx, document)
}

// DeleteOneWithTimeout performs a MongoDB DeleteOne operation with timeout
func DeleteOneWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, timeout time.Duration) (*mongo.DeleteResult, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	return collection.DeleteOne(ctx, filter)
}

// DeleteManyWithTimeout performs a MongoDB DeleteMany operation with timeout
func DeleteManyWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, timeout time.Duration) (*mongo.DeleteResult, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	return collection.DeleteMany(ctx, filter)
}

// CountDocumentsWithTimeout performs a MongoDB CountDocuments operation with timeout
func CountDocumentsWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, timeout time.Duration) (int64, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	return collection.CountDocuments(ctx, filter)
}

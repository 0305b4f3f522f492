package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/copper-mobile/app-api/internal/logging"
	"github.com/copper-mobile/app-api/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB database handle
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB connects to MongoDB and makes sure the required indexes exist.
func InitMongoDB(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	defer cancelIndexes()
	if err := EnsureIndexes(indexCtx, MongoDB, AppConfig); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
	return nil
}

// InitRedis creates the Redis client. A failed ping is logged but not fatal:
// Redis only backs caches.
func InitRedis(ctx context.Context) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisAddr,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	Redis = redisclient.NewClient(redisClient)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := Redis.Ping(pingCtx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("addr", AppConfig.RedisAddr),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis", zap.String("addr", AppConfig.RedisAddr))
}

// CloseMongoDB disconnects the MongoDB client.
func CloseMongoDB(ctx context.Context) error {
	if MongoDB == nil {
		return nil
	}
	return MongoDB.Client().Disconnect(ctx)
}

// maskMongoURI masks credentials in a MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	scheme := "mongodb://"
	if strings.HasPrefix(uri, "mongodb+srv://") {
		scheme = "mongodb+srv://"
	}
	return scheme + "****:****@" + uri[at+1:]
}

// EnsureIndexes creates the indexes the stores rely on if they are missing.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cfg *Config) error {
	logger := logging.Logger.With(zap.String("component", "database"))
	logger.Info("ensuring required indexes exist")

	if err := ensureIndexes(ctx, logger, db.Collection(cfg.UsersCollection), usersIndexes()); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := ensureIndexes(ctx, logger, db.Collection(cfg.OTPCollection), otpIndexes()); err != nil {
		return fmt.Errorf("otp indexes: %w", err)
	}
	if err := ensureIndexes(ctx, logger, db.Collection(cfg.AuditLogsCollection), auditIndexes()); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}

	logger.Info("all required indexes verified")
	return nil
}

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("phone_1").SetUnique(true),
		},
		{
			// Email is optional, so only documents carrying one take part.
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_1").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
	}
}

func otpIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("phone_1").SetUnique(true),
		},
		{
			// Server side expiry of pending records. Verified records carry no
			// expires_at and are never touched by this index.
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("expires_at_ttl").
				SetExpireAfterSeconds(0),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "resource_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("resource_id_1_timestamp_-1"),
		},
	}
}

func ensureIndexes(ctx context.Context, logger *logging.SafeLogger, collection *mongo.Collection, models []mongo.IndexModel) error {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	existing := make(map[string]bool)
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok {
			existing[name] = true
		}
	}

	for _, model := range models {
		name := *model.Options.Name
		if existing[name] {
			logger.Debug("index already exists",
				zap.String("collection", collection.Name()),
				zap.String("index", name))
			continue
		}

		if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
			// Another instance may have created it concurrently.
			if mongo.IsDuplicateKeyError(err) {
				logger.Info("index created by another instance",
					zap.String("collection", collection.Name()),
					zap.String("index", name))
				continue
			}
			return fmt.Errorf("failed to create index %s on %s: %w", name, collection.Name(), err)
		}

		logger.Info("index created",
			zap.String("collection", collection.Name()),
			zap.String("index", name))
	}
	return nil
}

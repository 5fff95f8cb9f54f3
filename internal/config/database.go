package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := EnsureVerificationIndexes(context.Background(), MongoDB, AppConfig.VerificationCollection); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	return "mongodb://****:****@" + uri[at+1:]
}

// EnsureVerificationIndexes creates the indexes the verification collection
// relies on. The code index is unique so the store can never hold two records
// for the same code; expiry is checked by the consume predicate rather than a
// Mongo TTL index, because a TTL index would also reap verified records and
// change the already-verified response after expiry.
func EnsureVerificationIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	logger := logging.Logger.Named("database")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	col := db.Collection(collection)

	cursor, err := col.Indexes().List(ctx)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	existingIndexes := make(map[string]bool)
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok {
			existingIndexes[name] = true
		}
	}

	indexesToCreate := []mongo.IndexModel{}

	// 1. Unique index on code: the code is the primary lookup key and the
	// bearer credential, duplicates must be impossible.
	if !existingIndexes["code_1"] {
		indexesToCreate = append(indexesToCreate, mongo.IndexModel{
			Keys: bson.D{{Key: "code", Value: 1}},
			Options: options.Index().
				SetName("code_1").
				SetUnique(true),
		})
	}

	// 2. Index on requester_id for diagnostic queries per user.
	if !existingIndexes["requester_id_1"] {
		indexesToCreate = append(indexesToCreate, mongo.IndexModel{
			Keys: bson.D{{Key: "requester_id", Value: 1}},
			Options: options.Index().
				SetName("requester_id_1"),
		})
	}

	// 3. Compound index matching the consume predicate (code, status, expires_at).
	if !existingIndexes["consume_query_1"] {
		indexesToCreate = append(indexesToCreate, mongo.IndexModel{
			Keys: bson.D{
				{Key: "code", Value: 1},
				{Key: "status", Value: 1},
				{Key: "expires_at", Value: 1},
			},
			Options: options.Index().
				SetName("consume_query_1"),
		})
	}

	for _, indexModel := range indexesToCreate {
		_, err = col.Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			// Another instance may have created it concurrently
			if mongo.IsDuplicateKeyError(err) {
				logger.Info("verification index already exists (created by another instance)",
					zap.String("collection", collection))
				continue
			}
			logger.Error("failed to create verification index",
				zap.String("collection", collection),
				zap.Error(err))
			return err
		}
	}

	if len(indexesToCreate) > 0 {
		logger.Info("created verification collection indexes",
			zap.String("collection", collection),
			zap.Int("count", len(indexesToCreate)))
	} else {
		logger.Debug("verification collection indexes already exist",
			zap.String("collection", collection))
	}

	return nil
}

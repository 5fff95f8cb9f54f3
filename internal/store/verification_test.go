package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fftools/likebot/internal/config"
	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// setupStore starts a MongoDB container and returns a store bound to a fresh
// collection with the production indexes applied.
func setupStore(t *testing.T) *VerificationStore {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7.0")
	require.NoError(t, err, "Failed to start MongoDB container")
	t.Cleanup(func() {
		_ = mongoContainer.Terminate(context.Background())
	})

	mongoURI, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MongoDB connection string")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("likebot_test")
	require.NoError(t, config.EnsureVerificationIndexes(ctx, db, "verifications"))

	return New(db, "verifications", logging.NewSafeLogger(zap.NewNop()))
}

func TestVerificationStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	store := setupStore(t)
	ctx := context.Background()

	t.Run("Consume of unknown code returns NotFound", func(t *testing.T) {
		result, err := store.Consume(ctx, "nonexistent12")
		require.NoError(t, err)
		assert.Equal(t, NotFound, result.Status)
		assert.Nil(t, result.Record)
	})

	t.Run("Create and consume round-trip preserves fields", func(t *testing.T) {
		reply := &models.ReplyTarget{ChatID: 1001}
		record, err := store.Create(ctx, 42, "Alice", "12345678", reply, 10*time.Minute)
		require.NoError(t, err)
		require.Len(t, record.Code, 12)
		assert.Equal(t, models.StatusPending, record.Status)
		assert.WithinDuration(t, record.CreatedAt.Add(10*time.Minute), record.ExpiresAt, time.Millisecond)

		result, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		require.Equal(t, Consumed, result.Status)
		require.NotNil(t, result.Record)
		assert.Equal(t, int64(42), result.Record.RequesterID)
		assert.Equal(t, "Alice", result.Record.RequesterName)
		assert.Equal(t, "12345678", result.Record.TargetUID)
		assert.Equal(t, models.StatusVerified, result.Record.Status)
		require.NotNil(t, result.Record.VerifiedAt)
		assert.Equal(t, int64(1001), result.Record.ReplyTarget.ChatID)
	})

	t.Run("Second consume returns AlreadyVerified", func(t *testing.T) {
		record, err := store.Create(ctx, 42, "Alice", "12345678", nil, 10*time.Minute)
		require.NoError(t, err)

		first, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		require.Equal(t, Consumed, first.Status)
		firstVerifiedAt := *first.Record.VerifiedAt

		second, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		assert.Equal(t, AlreadyVerified, second.Status)
		require.NotNil(t, second.Record)
		// verified_at is set exactly once
		assert.Equal(t, firstVerifiedAt, *second.Record.VerifiedAt)
	})

	t.Run("Concurrent consumes yield exactly one Consumed", func(t *testing.T) {
		record, err := store.Create(ctx, 42, "Alice", "12345678", nil, 10*time.Minute)
		require.NoError(t, err)

		const callers = 16
		results := make([]ConsumeStatus, callers)
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := store.Consume(ctx, record.Code)
				if err != nil {
					errs[i] = err
					return
				}
				results[i] = result.Status
			}(i)
		}
		wg.Wait()

		consumed := 0
		for i, status := range results {
			require.NoError(t, errs[i])
			switch status {
			case Consumed:
				consumed++
			case AlreadyVerified:
			default:
				t.Fatalf("unexpected outcome %s", status)
			}
		}
		assert.Equal(t, 1, consumed, "exactly one caller wins the transition")
	})

	t.Run("Consume after expiry returns Expired and keeps record pending", func(t *testing.T) {
		created := time.Now().UTC()
		store.WithClock(func() time.Time { return created })
		record, err := store.Create(ctx, 42, "Alice", "12345678", nil, time.Minute)
		require.NoError(t, err)

		store.WithClock(func() time.Time { return created.Add(time.Minute + time.Second) })
		result, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		assert.Equal(t, Expired, result.Status)
		require.NotNil(t, result.Record)
		assert.Equal(t, models.StatusPending, result.Record.Status)

		store.WithClock(time.Now)
	})

	t.Run("Consume exactly at expiry still succeeds", func(t *testing.T) {
		created := time.Now().UTC().Truncate(time.Millisecond)
		store.WithClock(func() time.Time { return created })
		record, err := store.Create(ctx, 42, "Alice", "12345678", nil, time.Minute)
		require.NoError(t, err)

		store.WithClock(func() time.Time { return created.Add(time.Minute) })
		result, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		assert.Equal(t, Consumed, result.Status, "boundary instant is still valid")

		store.WithClock(time.Now)
	})

	t.Run("Get is read-only", func(t *testing.T) {
		record, err := store.Create(ctx, 42, "Alice", "12345678", nil, 10*time.Minute)
		require.NoError(t, err)

		got, err := store.Get(ctx, record.Code)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StatusPending, got.Status)

		// The diagnostic read must not have consumed anything
		result, err := store.Consume(ctx, record.Code)
		require.NoError(t, err)
		assert.Equal(t, Consumed, result.Status)
	})

	t.Run("Get of unknown code returns nil without error", func(t *testing.T) {
		got, err := store.Get(ctx, "missing123ab")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetReplyTarget attaches the sent message", func(t *testing.T) {
		record, err := store.Create(ctx, 42, "Alice", "12345678", &models.ReplyTarget{ChatID: 1001}, 10*time.Minute)
		require.NoError(t, err)

		err = store.SetReplyTarget(ctx, record.Code, models.ReplyTarget{ChatID: 1001, MessageID: 77})
		require.NoError(t, err)

		got, err := store.Get(ctx, record.Code)
		require.NoError(t, err)
		require.NotNil(t, got.ReplyTarget)
		assert.True(t, got.ReplyTarget.CanEdit())
		assert.Equal(t, 77, got.ReplyTarget.MessageID)
	})

	t.Run("Multiple outstanding records per user", func(t *testing.T) {
		first, err := store.Create(ctx, 42, "Alice", "11111111", nil, 10*time.Minute)
		require.NoError(t, err)
		second, err := store.Create(ctx, 42, "Alice", "22222222", nil, 10*time.Minute)
		require.NoError(t, err)
		assert.NotEqual(t, first.Code, second.Code)

		r1, err := store.Consume(ctx, first.Code)
		require.NoError(t, err)
		r2, err := store.Consume(ctx, second.Code)
		require.NoError(t, err)
		assert.Equal(t, Consumed, r1.Status)
		assert.Equal(t, Consumed, r2.Status)
	})
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/fftools/likebot/internal/observability"
	"github.com/fftools/likebot/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConsumeStatus is the outcome of a consume attempt.
type ConsumeStatus int

const (
	// Consumed means this call performed the pending->verified transition.
	Consumed ConsumeStatus = iota
	// NotFound means no record exists for the code.
	NotFound
	// Expired means the record exists but its expiry has passed unverified.
	Expired
	// AlreadyVerified means another call won the transition earlier.
	AlreadyVerified
)

// String returns the outcome name as used in logs and metric labels.
func (s ConsumeStatus) String() string {
	switch s {
	case Consumed:
		return "consumed"
	case NotFound:
		return "not_found"
	case Expired:
		return "expired"
	case AlreadyVerified:
		return "already_verified"
	default:
		return "unknown"
	}
}

// ConsumeResult carries the outcome and, when a record exists, its state
// after the attempt.
type ConsumeResult struct {
	Status ConsumeStatus
	Record *models.VerificationRecord
}

// createAttempts bounds retries on a duplicate code insert. With 12-character
// base62 codes a single retry is already astronomically unlikely.
const createAttempts = 5

// VerificationStore is the injected token-store capability shared by the bot
// command handler and the HTTP verification endpoint. All methods are safe
// for arbitrary concurrent callers; Consume is the only mutating operation
// with an atomicity contract and it is implemented as a single conditional
// FindOneAndUpdate.
type VerificationStore struct {
	col    *mongo.Collection
	now    func() time.Time
	logger *logging.SafeLogger
}

// New creates a VerificationStore over the given collection.
func New(db *mongo.Database, collection string, logger *logging.SafeLogger) *VerificationStore {
	return &VerificationStore{
		col:    db.Collection(collection),
		now:    time.Now,
		logger: logger.Named("store"),
	}
}

// WithClock overrides the store's clock. Test hook.
func (s *VerificationStore) WithClock(now func() time.Time) *VerificationStore {
	s.now = now
	return s
}

// Create mints a fresh code and persists a pending record expiring ttl from
// now. The unique index on code turns a (practically impossible) collision
// into a duplicate-key error, retried with a new code.
func (s *VerificationStore) Create(ctx context.Context, requesterID int64, requesterName, targetUID string, reply *models.ReplyTarget, ttl time.Duration) (*models.VerificationRecord, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := utils.GenerateCode()
		if err != nil {
			return nil, err
		}

		now := s.now().UTC().Truncate(time.Millisecond)
		record := &models.VerificationRecord{
			Code:          code,
			RequesterID:   requesterID,
			RequesterName: requesterName,
			TargetUID:     targetUID,
			Status:        models.StatusPending,
			CreatedAt:     now,
			ExpiresAt:     now.Add(ttl),
			ReplyTarget:   reply,
		}

		if _, err := s.col.InsertOne(ctx, record); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				s.logger.Warn("verification code collision, regenerating",
					zap.String("code", observability.MaskCode(code)))
				continue
			}
			return nil, fmt.Errorf("insert verification record: %w", err)
		}

		s.logger.Debug("verification record created",
			zap.String("code", observability.MaskCode(code)),
			zap.Int64("requester_id", requesterID),
			zap.String("target_uid", targetUID),
			zap.Time("expires_at", record.ExpiresAt))
		return record, nil
	}

	return nil, fmt.Errorf("could not generate a unique verification code after %d attempts", createAttempts)
}

// Consume attempts the pending->verified transition for the given code. The
// status check, expiry check and transition are one FindOneAndUpdate, so two
// concurrent calls on the same code can never both observe Consumed: the
// loser's predicate no longer matches and it is classified by the follow-up
// read. The boundary instant now == expires_at still consumes.
func (s *VerificationStore) Consume(ctx context.Context, code string) (*ConsumeResult, error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	filter := bson.M{
		"code":       code,
		"status":     models.StatusPending,
		"expires_at": bson.M{"$gte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":      models.StatusVerified,
			"verified_at": now,
		},
	}

	var record models.VerificationRecord
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&record)
	if err == nil {
		s.logger.Info("verification consumed",
			zap.String("code", observability.MaskCode(code)),
			zap.Int64("requester_id", record.RequesterID),
			zap.String("target_uid", record.TargetUID))
		return &ConsumeResult{Status: Consumed, Record: &record}, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("consume verification record: %w", err)
	}

	// The transition did not happen; a plain read tells us why.
	existing, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &ConsumeResult{Status: NotFound}, nil
	}
	if existing.Status == models.StatusVerified {
		return &ConsumeResult{Status: AlreadyVerified, Record: existing}, nil
	}
	return &ConsumeResult{Status: Expired, Record: existing}, nil
}

// Get is a read-only lookup by code for diagnostics. It never mutates state.
func (s *VerificationStore) Get(ctx context.Context, code string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	err := s.col.FindOne(ctx, bson.M{"code": code}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	return &record, nil
}

// SetReplyTarget attaches the sent prompt message to the record so the
// completion summary can be delivered as an edit. A failure here only
// degrades delivery from edit to a fresh direct message.
func (s *VerificationStore) SetReplyTarget(ctx context.Context, code string, reply models.ReplyTarget) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"reply_target": reply}},
	)
	if err != nil {
		return fmt.Errorf("set reply target: %w", err)
	}
	return nil
}

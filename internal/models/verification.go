package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationRecord is one verification request: a single-use, time-limited
// code gating one like grant for one target UID.
type VerificationRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	RequesterID   int64              `bson:"requester_id" json:"requester_id"`
	RequesterName string             `bson:"requester_name,omitempty" json:"requester_name,omitempty"`
	TargetUID     string             `bson:"target_uid" json:"target_uid"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt     time.Time          `bson:"expires_at" json:"expires_at"`
	VerifiedAt    *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	ReplyTarget   *ReplyTarget       `bson:"reply_target,omitempty" json:"reply_target,omitempty"`
}

// ReplyTarget identifies the chat message the completion summary is delivered
// to. MessageID is zero until the prompt message has been sent; the notifier
// then falls back to a fresh direct message.
type ReplyTarget struct {
	ChatID    int64 `bson:"chat_id" json:"chat_id"`
	MessageID int   `bson:"message_id,omitempty" json:"message_id,omitempty"`
}

// Verification status constants. There is no persisted expired status; expiry
// is derived from ExpiresAt.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Expired reports whether the record is past its expiry at the given instant.
// The boundary instant itself is still valid.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// CanEdit reports whether the reply target references a sent message that can
// be edited in place.
func (t *ReplyTarget) CanEdit() bool {
	return t != nil && t.ChatID != 0 && t.MessageID != 0
}

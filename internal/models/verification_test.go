package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationRecord_Expired(t *testing.T) {
	now := time.Now()
	record := &VerificationRecord{
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}

	t.Run("Not expired before the deadline", func(t *testing.T) {
		assert.False(t, record.Expired(now.Add(10*time.Minute-time.Second)))
	})

	t.Run("Not expired exactly at the deadline", func(t *testing.T) {
		assert.False(t, record.Expired(record.ExpiresAt))
	})

	t.Run("Expired after the deadline", func(t *testing.T) {
		assert.True(t, record.Expired(now.Add(10*time.Minute+time.Second)))
	})
}

func TestReplyTarget_CanEdit(t *testing.T) {
	assert.False(t, (*ReplyTarget)(nil).CanEdit())
	assert.False(t, (&ReplyTarget{ChatID: 42}).CanEdit())
	assert.False(t, (&ReplyTarget{MessageID: 7}).CanEdit())
	assert.True(t, (&ReplyTarget{ChatID: 42, MessageID: 7}).CanEdit())
}

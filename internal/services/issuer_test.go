package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fftools/likebot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	lastTTL   time.Duration
	lastReply *models.ReplyTarget
	err       error
}

func (f *fakeTokenStore) Create(ctx context.Context, requesterID int64, requesterName, targetUID string, reply *models.ReplyTarget, ttl time.Duration) (*models.VerificationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTTL = ttl
	f.lastReply = reply
	now := time.Now()
	return &models.VerificationRecord{
		Code:          "aB3xK9mQ2rTz",
		RequesterID:   requesterID,
		RequesterName: requesterName,
		TargetUID:     targetUID,
		Status:        models.StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		ReplyTarget:   reply,
	}, nil
}

type fakeShortener struct {
	short  string
	called bool
}

func (f *fakeShortener) Shorten(ctx context.Context, longURL string) string {
	f.called = true
	if f.short == "" {
		return longURL
	}
	return f.short
}

func TestLinkIssuer_Issue(t *testing.T) {
	t.Run("Builds canonical URL and shortens it", func(t *testing.T) {
		store := &fakeTokenStore{}
		shortener := &fakeShortener{short: "https://short.example/xyz"}
		issuer := NewLinkIssuer(store, shortener, "https://likebot.example.com", 10*time.Minute, testLogger())

		link, err := issuer.Issue(context.Background(), 42, "Alice", "12345678", &models.ReplyTarget{ChatID: 1001})
		require.NoError(t, err)

		assert.Equal(t, "aB3xK9mQ2rTz", link.Code)
		assert.Equal(t, "https://likebot.example.com/verify/aB3xK9mQ2rTz", link.URL)
		assert.Equal(t, "https://short.example/xyz", link.ShortURL)
		assert.True(t, shortener.called)
		assert.Equal(t, 10*time.Minute, store.lastTTL)
		assert.Equal(t, int64(1001), store.lastReply.ChatID)
	})

	t.Run("Shortener fallback keeps canonical URL", func(t *testing.T) {
		issuer := NewLinkIssuer(&fakeTokenStore{}, &fakeShortener{}, "https://likebot.example.com", 10*time.Minute, testLogger())

		link, err := issuer.Issue(context.Background(), 42, "Alice", "12345678", nil)
		require.NoError(t, err)
		assert.Equal(t, link.URL, link.ShortURL)
	})

	t.Run("Nil shortener uses canonical URL", func(t *testing.T) {
		issuer := NewLinkIssuer(&fakeTokenStore{}, nil, "https://likebot.example.com", 10*time.Minute, testLogger())

		link, err := issuer.Issue(context.Background(), 42, "Alice", "12345678", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://likebot.example.com/verify/aB3xK9mQ2rTz", link.ShortURL)
	})

	t.Run("Store failure propagates", func(t *testing.T) {
		store := &fakeTokenStore{err: errors.New("mongo down")}
		issuer := NewLinkIssuer(store, nil, "https://likebot.example.com", 10*time.Minute, testLogger())

		_, err := issuer.Issue(context.Background(), 42, "Alice", "12345678", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mongo down")
	})
}

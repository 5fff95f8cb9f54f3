package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/fftools/likebot/internal/observability"
	"go.uber.org/zap"
)

// TokenStore is the store capability the issuer needs.
type TokenStore interface {
	Create(ctx context.Context, requesterID int64, requesterName, targetUID string, reply *models.ReplyTarget, ttl time.Duration) (*models.VerificationRecord, error)
}

// URLShortener shortens a link, falling back to the input on failure.
type URLShortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// IssuedLink is a minted verification link ready to hand to the requester.
type IssuedLink struct {
	Code      string
	URL       string
	ShortURL  string
	ExpiresAt time.Time
}

// LinkIssuer mints verification records and shareable links. The record is
// created before the link leaves this process, so a click can never observe a
// missing record for a link we handed out.
type LinkIssuer struct {
	store     TokenStore
	shortener URLShortener
	baseURL   string
	ttl       time.Duration
	logger    *logging.SafeLogger
}

// NewLinkIssuer creates a link issuer. shortener may be nil, in which case
// the canonical URL is always used.
func NewLinkIssuer(store TokenStore, shortener URLShortener, baseURL string, ttl time.Duration, logger *logging.SafeLogger) *LinkIssuer {
	return &LinkIssuer{
		store:     store,
		shortener: shortener,
		baseURL:   baseURL,
		ttl:       ttl,
		logger:    logger.Named("issuer"),
	}
}

// Issue creates a pending record for the requester and target, and returns
// the verification link, shortened when the shortening collaborator
// cooperates. It does not message the user; that is the caller's job.
func (li *LinkIssuer) Issue(ctx context.Context, requesterID int64, requesterName, targetUID string, reply *models.ReplyTarget) (*IssuedLink, error) {
	record, err := li.store.Create(ctx, requesterID, requesterName, targetUID, reply, li.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue verification link: %w", err)
	}

	longURL := fmt.Sprintf("%s/verify/%s", li.baseURL, record.Code)
	shortURL := longURL
	if li.shortener != nil {
		shortURL = li.shortener.Shorten(ctx, longURL)
	}

	shortened := "false"
	if shortURL != longURL {
		shortened = "true"
	}
	observability.LinksIssued.WithLabelValues(shortened).Inc()

	li.logger.Info("verification link issued",
		zap.String("code", observability.MaskCode(record.Code)),
		zap.Int64("requester_id", requesterID),
		zap.String("target_uid", targetUID),
		zap.Bool("shortened", shortURL != longURL))

	return &IssuedLink{
		Code:      record.Code,
		URL:       longURL,
		ShortURL:  shortURL,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

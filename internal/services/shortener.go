package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Shortener produces shortened verification links. Shortening is strictly
// best-effort: any failure falls back to the canonical URL and is never
// surfaced to the caller.
type Shortener struct {
	apiURL  string
	apiKey  string
	timeout time.Duration
	logger  *logging.SafeLogger
}

type shortenResponse struct {
	ShortenedURL string `json:"shortenedUrl"`
}

// NewShortener creates a shortener client.
func NewShortener(apiURL, apiKey string, timeout time.Duration, logger *logging.SafeLogger) *Shortener {
	return &Shortener{
		apiURL:  apiURL,
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("shortener"),
	}
}

// Shorten returns a shortened form of longURL, or longURL itself when the
// shortening service is unconfigured, slow or failing. The call is bounded by
// the configured timeout so link issuance never stalls on the collaborator.
func (s *Shortener) Shorten(ctx context.Context, longURL string) string {
	if s == nil || s.apiKey == "" {
		return longURL
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := s.apiURL + "?api=" + url.QueryEscape(s.apiKey) + "&url=" + url.QueryEscape(longURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		s.logger.Warn("failed to create shorten request", zap.Error(err))
		return longURL
	}

	client := httpclient.GetGlobalPool().Get()
	defer httpclient.GetGlobalPool().Put(client)

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("URL shortening failed, using canonical URL", zap.Error(err))
		return longURL
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		s.logger.Warn("URL shortening failed, using canonical URL",
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return longURL
	}

	var shortened shortenResponse
	if err := json.Unmarshal(body, &shortened); err != nil || shortened.ShortenedURL == "" {
		s.logger.Warn("shortener returned an unusable response", zap.Error(err))
		return longURL
	}

	return shortened.ShortenedURL
}

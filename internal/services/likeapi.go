package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/observability"
	"github.com/fftools/likebot/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Like API status codes as returned by the upstream service.
const (
	// LikeStatusGranted means likes were sent to the profile.
	LikeStatusGranted = 1
	// LikeStatusMaxed means the profile already received its daily maximum.
	LikeStatusMaxed = 2
)

// LikeResult is the upstream response for a like grant. Field names follow
// the upstream JSON shape.
type LikeResult struct {
	Status         int    `json:"status"`
	PlayerNickname string `json:"PlayerNickname"`
	UID            string `json:"UID"`
	LikesBefore    int    `json:"LikesbeforeCommand"`
	LikesAfter     int    `json:"LikesafterCommand"`
	LikesGiven     int    `json:"LikesGivenByAPI"`
}

// LikeClient calls the external like-granting API.
type LikeClient struct {
	urlTemplate string
	logger      *logging.SafeLogger
}

// NewLikeClient creates a like API client. urlTemplate must contain a {uid}
// placeholder.
func NewLikeClient(urlTemplate string, logger *logging.SafeLogger) *LikeClient {
	return &LikeClient{
		urlTemplate: urlTemplate,
		logger:      logger.Named("likeapi"),
	}
}

// SendLike requests a like grant for the given target UID. The caller is
// responsible for interpreting the result status; an error here means the
// upstream was unreachable or returned an unusable response.
func (c *LikeClient) SendLike(ctx context.Context, uid string) (*LikeResult, error) {
	endpoint := strings.ReplaceAll(c.urlTemplate, "{uid}", url.QueryEscape(uid))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		observability.LikeAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create like request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	client := httpclient.GetGlobalPool().Get()
	defer httpclient.GetGlobalPool().Put(client)

	resp, err := client.Do(req)
	if err != nil {
		observability.LikeAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("send like request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.LikeAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read like response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		observability.LikeAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("like request failed with status: %d", resp.StatusCode)
	}

	var result LikeResult
	if err := json.Unmarshal(body, &result); err != nil {
		observability.LikeAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode like response: %w", err)
	}

	switch result.Status {
	case LikeStatusGranted:
		observability.LikeAPICalls.WithLabelValues("granted").Inc()
	case LikeStatusMaxed:
		observability.LikeAPICalls.WithLabelValues("maxed").Inc()
	default:
		observability.LikeAPICalls.WithLabelValues("failed").Inc()
	}

	c.logger.Debug("like API responded",
		zap.String("uid", uid),
		zap.Int("status", result.Status),
		zap.Int("likes_given", result.LikesGiven))
	return &result, nil
}

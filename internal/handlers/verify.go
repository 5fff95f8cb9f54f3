package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/models"
	"github.com/fftools/likebot/internal/observability"
	"github.com/fftools/likebot/internal/services"
	"github.com/fftools/likebot/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	invalidLinkText  = "❌ Invalid or expired verification link."
	expiredLinkText  = "⏱️ This verification link has expired. Please request a new one."
	internalErrText  = "❌ Internal server error."
	verifiedPageTmpl = "<h2 style='color:green;'>✅ Verification successful!</h2>" +
		"<p>User ID: <b>%d</b><br>Now you can return to Telegram.</p>"
	alreadyPageTmpl = "<h3 style='color:orange;'>⚠️ You have already verified.</h3>" +
		"<p>User ID: %d</p>"
)

// TokenConsumer is the store surface the verification handler needs.
type TokenConsumer interface {
	Consume(ctx context.Context, code string) (*store.ConsumeResult, error)
	Get(ctx context.Context, code string) (*models.VerificationRecord, error)
}

// CompletionQueue accepts jobs for asynchronous like delivery.
type CompletionQueue interface {
	Enqueue(job services.NotificationJob) error
}

// VerifyHandler serves the public verification endpoint.
type VerifyHandler struct {
	store  TokenConsumer
	queue  CompletionQueue
	logger *logging.SafeLogger
}

// NewVerifyHandler builds the handler for verification link clicks.
func NewVerifyHandler(store TokenConsumer, queue CompletionQueue, logger *logging.SafeLogger) *VerifyHandler {
	return &VerifyHandler{
		store:  store,
		queue:  queue,
		logger: logger.Named("verify"),
	}
}

// VerifyLink godoc
// @Summary Consume a verification link
// @Description Marks a pending verification code as verified. Exactly one
// @Description request per code succeeds; later clicks see an already-verified
// @Description page. Expired or unknown codes get a 400 with a plain-text reason.
// @Tags verification
// @Produce html
// @Param code path string true "Verification code"
// @Success 200 {string} string "Verification result page"
// @Failure 400 {string} string "Invalid or expired link"
// @Failure 500 {string} string "Internal server error"
// @Router /verify/{code} [get]
func (h *VerifyHandler) VerifyLink(c *gin.Context) {
	code := c.Param("code")
	logger := h.logger.With(zap.String("code", observability.MaskCode(code)))

	result, err := h.store.Consume(c.Request.Context(), code)
	if err != nil {
		logger.Error("consume failed", zap.Error(err))
		observability.VerificationOutcomes.WithLabelValues("error").Inc()
		c.String(http.StatusInternalServerError, internalErrText)
		return
	}

	observability.VerificationOutcomes.WithLabelValues(result.Status.String()).Inc()

	switch result.Status {
	case store.NotFound:
		c.String(http.StatusBadRequest, invalidLinkText)

	case store.Expired:
		c.String(http.StatusBadRequest, expiredLinkText)

	case store.AlreadyVerified:
		c.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte(fmt.Sprintf(alreadyPageTmpl, result.Record.RequesterID)))

	case store.Consumed:
		record := result.Record
		job := services.NotificationJob{
			Code:        record.Code,
			RequesterID: record.RequesterID,
			TargetUID:   record.TargetUID,
			ReplyTarget: record.ReplyTarget,
			EnqueuedAt:  time.Now(),
		}
		if err := h.queue.Enqueue(job); err != nil {
			// The token is spent either way; the user still gets the page.
			logger.Error("failed to enqueue completion job", zap.Error(err))
		}
		logger.Info("verification consumed",
			zap.Int64("requester_id", record.RequesterID),
			zap.String("target_uid", record.TargetUID))
		c.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte(fmt.Sprintf(verifiedPageTmpl, record.RequesterID)))

	default:
		logger.Error("unexpected consume status", zap.String("status", result.Status.String()))
		c.String(http.StatusInternalServerError, internalErrText)
	}
}

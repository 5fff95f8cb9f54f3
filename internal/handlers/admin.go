package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/fftools/likebot/internal/logging"
	"github.com/fftools/likebot/internal/observability"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes read-only diagnostics behind a shared token.
type AdminHandler struct {
	store  TokenConsumer
	token  string
	logger *logging.SafeLogger
}

// NewAdminHandler builds the diagnostics handler. An empty token disables
// the endpoint entirely.
func NewAdminHandler(store TokenConsumer, token string, logger *logging.SafeLogger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		token:  token,
		logger: logger.Named("admin"),
	}
}

// Enabled reports whether the diagnostics route should be registered.
func (h *AdminHandler) Enabled() bool {
	return h.token != ""
}

// GetVerification godoc
// @Summary Inspect a verification record
// @Description Returns the raw state of a verification record without
// @Description consuming it. Requires the X-Admin-Token header.
// @Tags admin
// @Produce json
// @Param code path string true "Verification code"
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} models.VerificationRecord
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /v1/verifications/{code} [get]
func (h *AdminHandler) GetVerification(c *gin.Context) {
	provided := c.GetHeader("X-Admin-Token")
	if h.token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code := c.Param("code")
	record, err := h.store.Get(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("lookup failed",
			zap.String("code", observability.MaskCode(code)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

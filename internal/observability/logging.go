package observability

import (
	"github.com/fftools/likebot/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskCode masks a verification code for logging; the code is a bearer
// credential and must not appear whole in log output.
func MaskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return code[:4] + "********"
}

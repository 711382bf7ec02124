package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamgroup/errors"
)

// DefaultMaxBodySize is used when a size string cannot be parsed.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// BodySizeLimit restricts the request body to maxSize (e.g. "10MB",
// "512KB"). Requests declaring a larger Content-Length are rejected up
// front; streamed bodies fail with *http.MaxBytesError once they cross the
// limit.
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := ParseSize(maxSize, DefaultMaxBodySize)
	return func(c *gin.Context) {
		if c.Request.ContentLength > size {
			appErr := apperrors.PayloadTooLarge(size)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}

// ParseSize converts a human-readable size ("10MB", "512KB", "1GB", "100")
// to bytes, returning defaultBytes when s is empty or malformed.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var val int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &val); err == nil && val > 0 {
		return val * multiplier
	}
	return defaultBytes
}

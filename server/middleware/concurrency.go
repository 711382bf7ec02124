package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamgroup/errors"
	"github.com/kbukum/streamgroup/resilience"
)

// ConcurrencyLimit admits at most the bulkhead's slot count of requests at
// once. Rejected requests get a 503 with a Retry-After hint; requests whose
// client went away while queued are aborted without a body.
func ConcurrencyLimit(b *resilience.Bulkhead, retryAfter time.Duration) gin.HandlerFunc {
	seconds := strconv.Itoa(max(1, int(retryAfter.Round(time.Second)/time.Second)))
	return func(c *gin.Context) {
		release, err := b.Acquire(c.Request.Context())
		if err != nil {
			if !errors.Is(err, resilience.ErrBulkheadFull) && !errors.Is(err, resilience.ErrBulkheadTimeout) {
				c.Abort()
				return
			}
			c.Header("Retry-After", seconds)
			abort(c, apperrors.ServiceUnavailable(b.Name()).WithCause(err))
			return
		}
		defer release()
		c.Next()
	}
}

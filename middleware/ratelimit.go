package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter limits each client IP to 100 requests per 15 minutes across
// the whole API surface, the identity resolver included.
func RateLimiter() gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 15 * time.Minute,
		Limit:  100,
	}
	store := memory.NewStore()
	return mgin.NewMiddleware(limiter.New(store, rate))
}

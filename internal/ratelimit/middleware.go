package ratelimit

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// KeyFunc derives the limiter key for a request; an empty key skips limiting.
type KeyFunc func(c *fiber.Ctx) string

// Middleware rejects requests over the limit with 429. Limiter outages let traffic through.
func Middleware(limiter Limiter, keyFn KeyFunc, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		key := keyFn(c)
		if key == "" {
			return c.Next()
		}

		decision, err := limiter.Take(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		if !decision.Allowed {
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			return apperrors.NewTooManyRequests("rate limit exceeded", map[string]any{
				"limit":       decision.Limit,
				"retry_after": retry,
			})
		}
		return c.Next()
	}
}

package serverutils

import (
	"time"

	"messaging-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

func RequestLogger(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		details := map[string]interface{}{
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"status":     ctx.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if uid, ok := ctx.Locals("user_id").(string); ok {
			details["user_id"] = uid
		}
		if err != nil {
			details["error"] = err.Error()
		}
		log.Info("HTTP", "request", details)
		return err
	}
}

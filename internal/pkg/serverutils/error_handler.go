package serverutils

import (
	"errors"

	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders AppErrors with their status and code; fiber errors keep
// their own status; anything else becomes a 500 without leaking internals.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return ctx.Status(appErr.StatusCode).JSON(&ErrorBody{
				Success: false,
				Code:    appErr.StatusCode,
				Error:   appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"error":  err.Error(),
		})
		internal := apperror.Internal("internal server error")
		return ctx.Status(internal.StatusCode).JSON(&ErrorBody{
			Success: false,
			Code:    internal.StatusCode,
			Error:   internal.Code,
			Message: internal.Message,
		})
	}
}

// ErrorHandlerMiddleware resolves handler errors in place so middlewares
// registered before it see the final status.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}

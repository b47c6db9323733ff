package serverutils

import (
	"errors"

	"token-pattern-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. AppErrors keep their status and kind; fiber errors keep their
// status; anything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		appErr := apperror.From(err)
		res := ErrorResponse(appErr.Status, appErr.Message)
		res.ErrorCode = string(appErr.Kind)
		return ctx.Status(appErr.Status).JSON(res)
	}
}

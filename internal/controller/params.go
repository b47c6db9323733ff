package controller

import (
	"token-pattern-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const routePrefix = "/pattern/v1"

func paramId(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.ErrBadRequest.WithMessage("invalid %s", name)
	}
	return id, nil
}

// parseBody decodes and validates a JSON request body.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("malformed request body").WithInternal(err)
	}
	return nil
}

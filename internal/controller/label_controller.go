package controller

import (
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILabelController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Label(ctx *fiber.Ctx) error
	Propagate(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type labelController struct {
	service service.ILabelService
}

func NewLabelController(service service.ILabelService) ILabelController {
	return &labelController{service: service}
}

func (c *labelController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group(routePrefix)
	h.Post("/labels", jwtMiddleware, c.Label)
	h.Post("/labels/propagate", jwtMiddleware, c.Propagate)
	h.Get("/embeddings/:id/labels/history", c.History)
}

func (c *labelController) Label(ctx *fiber.Ctx) error {
	var req dto.LabelRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Label(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success label embedding", res))
}

func (c *labelController) Propagate(ctx *fiber.Ctx) error {
	var req dto.PropagateRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Propagate(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success propagate label", res))
}

func (c *labelController) History(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.History(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get label history", res))
}

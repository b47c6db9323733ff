package controller

import (
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISyncController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Status(ctx *fiber.Ctx) error
	Trigger(ctx *fiber.Ctx) error
}

type syncController struct {
	service service.ISyncService
}

func NewSyncController(service service.ISyncService) ISyncController {
	return &syncController{service: service}
}

func (c *syncController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group(routePrefix + "/sync")
	h.Get("/status", c.Status)
	h.Post("", jwtMiddleware, c.Trigger)
}

func (c *syncController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sync status", res))
}

func (c *syncController) Trigger(ctx *fiber.Ctx) error {
	res, err := c.service.Sync(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success sync similarity pairs", res))
}

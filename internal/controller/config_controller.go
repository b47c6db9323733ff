package controller

import (
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConfigController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SetActive(ctx *fiber.Ctx) error
}

type configController struct {
	service service.IConfigService
}

func NewConfigController(service service.IConfigService) IConfigController {
	return &configController{service: service}
}

func (c *configController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group(routePrefix + "/configs")
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Post("", jwtMiddleware, c.Create)
	h.Put(":id/active", jwtMiddleware, c.SetActive)
}

func (c *configController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateConfigRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create embedding config", res))
}

func (c *configController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.Context(), ctx.QueryBool("active", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list embedding configs", res))
}

func (c *configController) Show(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Show(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show embedding config", res))
}

func (c *configController) SetActive(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateConfigActiveRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetActive(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update embedding config", res))
}

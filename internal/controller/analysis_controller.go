package controller

import (
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Cluster(ctx *fiber.Ctx) error
	Outliers(ctx *fiber.Ctx) error
}

type analysisController struct {
	service service.IAnalysisService
}

func NewAnalysisController(service service.IAnalysisService) IAnalysisController {
	return &analysisController{service: service}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group(routePrefix + "/analysis")
	h.Post("/clusters", c.Cluster)
	h.Post("/outliers", c.Outliers)
}

func (c *analysisController) Cluster(ctx *fiber.Ctx) error {
	var req dto.ClusterRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Cluster(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cluster embeddings", res))
}

func (c *analysisController) Outliers(ctx *fiber.Ctx) error {
	var req dto.OutlierRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Outliers(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success score outliers", res))
}

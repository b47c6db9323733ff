package controller

import (
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	GetEmbedding(ctx *fiber.Ctx) error
	IndexStats(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
}

func NewSearchController(service service.ISearchService) ISearchController {
	return &searchController{service: service}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group(routePrefix)
	h.Post("/search", c.Search)
	h.Get("/embeddings/:id", c.GetEmbedding)
	h.Get("/index/stats", c.IndexStats)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search similar patterns", res))
}

func (c *searchController) GetEmbedding(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.GetEmbedding(ctx.Context(), id, ctx.QueryBool("vector", false))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get embedding", res))
}

func (c *searchController) IndexStats(ctx *fiber.Ctx) error {
	res, err := c.service.IndexStats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get index stats", res))
}

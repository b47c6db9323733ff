package controller

import (
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Generate(ctx *fiber.Ctx) error
	ListJobs(ctx *fiber.Ctx) error
	GetJob(ctx *fiber.Ctx) error
	CancelJob(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type generationController struct {
	scheduler service.ISchedulerService
}

func NewGenerationController(scheduler service.ISchedulerService) IGenerationController {
	return &generationController{scheduler: scheduler}
}

func (c *generationController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group(routePrefix)
	h.Post("/generate", jwtMiddleware, c.Generate)
	h.Get("/jobs", c.ListJobs)
	h.Get("/jobs/:id", c.GetJob)
	h.Post("/jobs/:id/cancel", jwtMiddleware, c.CancelJob)
	h.Get("/scheduler", c.Status)
}

// Generate queues a manual job and answers 202 with its id.
func (c *generationController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.scheduler.Trigger(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Generation job queued", res))
}

func (c *generationController) ListJobs(ctx *fiber.Ctx) error {
	res, err := c.scheduler.ListJobs(ctx.Context(), ctx.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list jobs", res))
}

func (c *generationController) GetJob(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.scheduler.GetJob(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get job", res))
}

func (c *generationController) CancelJob(ctx *fiber.Ctx) error {
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.scheduler.Cancel(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Job cancellation requested", nil))
}

func (c *generationController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get scheduler status", c.scheduler.Status()))
}

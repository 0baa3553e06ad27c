package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"gamebook-engine/internal/dto"
	"gamebook-engine/internal/pkg/serverutils"
	"gamebook-engine/internal/service"
)

type IGameController interface {
	RegisterRoutes(r fiber.Router)
	ProcessSection(ctx *fiber.Ctx) error
	ShowContent(ctx *fiber.Ctx) error
	ListTrace(ctx *fiber.Ctx) error
}

type gameController struct {
	gameService service.IGameService
}

func NewGameController(gameService service.IGameService) IGameController {
	return &gameController{
		gameService: gameService,
	}
}

func (c *gameController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/game/v1")
	h.Post("section/process", c.ProcessSection)
	h.Get("section/:id/content", c.ShowContent)
	h.Get("trace", c.ListTrace)
}

func (c *gameController) ProcessSection(ctx *fiber.Ctx) error {
	var req dto.ProcessSectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The pipeline always answers with a game state; failures ride on
	// its error field, not on the HTTP status.
	res := c.gameService.ProcessSection(ctx.Context(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Section processed", res))
}

func (c *gameController) ShowContent(ctx *fiber.Ctx) error {
	section, err := strconv.Atoi(ctx.Params("id"))
	if err != nil || section <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid section id")
	}

	res, err := c.gameService.GetContent(ctx.Context(), section)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get content", res))
}

func (c *gameController) ListTrace(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 100)
	since := uint64(ctx.QueryInt("since", 0))

	res := c.gameService.GetTrace(limit, since)
	return ctx.JSON(serverutils.SuccessResponse("Success get trace", res))
}

package controller

import (
	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/pkg/serverutils"
	"stallpick-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEventController interface {
	RegisterRoutes(r fiber.Router)
	Append(ctx *fiber.Ctx) error
	Count(ctx *fiber.Ctx) error
	Choose(ctx *fiber.Ctx) error
	RequestDish(ctx *fiber.Ctx) error
	AllChecked(ctx *fiber.Ctx) error
}

type eventController struct {
	eventLog service.IEventLog
	actions  service.IActionService
}

func NewEventController(eventLog service.IEventLog, actions service.IActionService) IEventController {
	return &eventController{eventLog: eventLog, actions: actions}
}

func (c *eventController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/:sessionId")
	h.Post("/events", c.Append)
	h.Get("/events/count", c.Count)

	h.Post("/actions/choose", c.Choose)
	h.Post("/actions/request", c.RequestDish)
	h.Post("/actions/all-checked", c.AllChecked)
}

func (c *eventController) Append(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AppendEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	event, err := c.eventLog.Append(ctx.UserContext(), sessionId, entity.EventKind(req.Kind), req.Meta)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Event recorded", mapper.EventToResponse(event)))
}

func (c *eventController) Count(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	kind := entity.EventKind(ctx.Query("kind"))
	if kind != "" && !kind.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown event kind")
	}

	n, err := c.eventLog.Count(ctx.UserContext(), sessionId, kind)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success count events", dto.EventCountResponse{Kind: string(kind), Count: n}))
}

func (c *eventController) Choose(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetChosenStallRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	row, err := c.actions.ChooseStall(ctx.UserContext(), sessionId, req.StallId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Stall chosen", mapper.CurrentChoiceToRow(row)))
}

func (c *eventController) RequestDish(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetRequestTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	row, err := c.actions.RequestDish(ctx.UserContext(), sessionId, req.Text)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Dish requested", mapper.CurrentChoiceToRow(row)))
}

func (c *eventController) AllChecked(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	path, err := c.actions.MarkAllChecked(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("All stalls checked", dto.AllCheckedResponse{EaterPath: path}))
}

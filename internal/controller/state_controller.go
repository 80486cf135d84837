package controller

import (
	"stallpick-be/internal/dto"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/pkg/serverutils"
	"stallpick-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IStateController interface {
	RegisterRoutes(r fiber.Router)
	GetAvailability(ctx *fiber.Ctx) error
	SetAvailability(ctx *fiber.Ctx) error
	GetChoice(ctx *fiber.Ctx) error
	SetChosenStall(ctx *fiber.Ctx) error
	SetRequestText(ctx *fiber.Ctx) error
}

type stateController struct {
	store   service.IStateStore
	actions service.IActionService
}

func NewStateController(store service.IStateStore, actions service.IActionService) IStateController {
	return &stateController{store: store, actions: actions}
}

func (c *stateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/:sessionId")
	h.Get("/availability", c.GetAvailability)
	h.Put("/availability/:stallId", c.SetAvailability)
	h.Get("/choice", c.GetChoice)
	h.Put("/choice/stall", c.SetChosenStall)
	h.Put("/choice/request", c.SetRequestText)
}

func sessionParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}
	return id, nil
}

func (c *stateController) GetAvailability(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	rows, err := c.store.LoadAvailabilityRows(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	res := make([]dto.AvailabilityRow, 0, len(rows))
	for _, row := range rows {
		res = append(res, mapper.AvailabilityToRow(row))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success load availability", res))
}

func (c *stateController) SetAvailability(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}
	stallId, err := uuid.Parse(ctx.Params("stallId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid stall id")
	}

	var req dto.SetAvailabilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	row, err := c.actions.ToggleAvailability(ctx.UserContext(), sessionId, stallId, *req.IsOpen, req.UpdatedBy)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set availability", mapper.AvailabilityToRow(row)))
}

func (c *stateController) GetChoice(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	row, err := c.store.LoadCurrentChoice(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success load current choice", mapper.CurrentChoiceToRow(row)))
}

func (c *stateController) SetChosenStall(ctx *fiber.Ctx) error {
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

	row, err := c.actions.SetChosenStall(ctx.UserContext(), sessionId, req.StallId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set chosen stall", mapper.CurrentChoiceToRow(row)))
}

func (c *stateController) SetRequestText(ctx *fiber.Ctx) error {
	sessionId, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetRequestTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	row, err := c.actions.SetRequestText(ctx.UserContext(), sessionId, req.Text)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set request text", mapper.CurrentChoiceToRow(row)))
}

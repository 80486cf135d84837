package controller

import (
	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"
	"stallpick-be/internal/mapper"
	"stallpick-be/internal/pkg/serverutils"
	"stallpick-be/internal/reconciler"
	"stallpick-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Snapshot(ctx *fiber.Ctx) error
	SessionStalls(ctx *fiber.Ctx) error
	MarketStalls(ctx *fiber.Ctx) error
}

type sessionController struct {
	resolver service.ISessionResolver
}

func NewSessionController(resolver service.ISessionResolver) ISessionController {
	return &sessionController{resolver: resolver}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Get(":code", c.Show)
	h.Get(":code/snapshot", c.Snapshot)
	h.Get(":code/stalls", c.SessionStalls)

	r.Get("/markets/:marketId/stalls", c.MarketStalls)
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	session, err := c.resolver.Resolve(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success resolve session", mapper.SessionToResponse(session)))
}

func (c *sessionController) Snapshot(ctx *fiber.Ctx) error {
	snap, err := c.resolver.Bootstrap(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return err
	}

	availability := make(map[uuid.UUID]bool, len(snap.Availability))
	rows := make([]dto.AvailabilityRow, 0, len(snap.Availability))
	for _, a := range snap.Availability {
		availability[a.StallId] = a.IsOpen
		rows = append(rows, mapper.AvailabilityToRow(a))
	}

	res := dto.SnapshotResponse{
		Session:       mapper.SessionToResponse(snap.Session),
		Stalls:        stallResponses(snap.Stalls, availability),
		Availability:  rows,
		CurrentChoice: mapper.CurrentChoiceToRow(snap.CurrentChoice),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success load snapshot", res))
}

// SessionStalls lists stalls with this session's flags. order=eater puts
// open stalls first; q filters by name.
func (c *sessionController) SessionStalls(ctx *fiber.Ctx) error {
	snap, err := c.resolver.Bootstrap(ctx.UserContext(), ctx.Params("code"))
	if err != nil {
		return err
	}

	availability := make(map[uuid.UUID]bool, len(snap.Availability))
	for _, a := range snap.Availability {
		availability[a.StallId] = a.IsOpen
	}

	stalls := reconciler.Filter(snap.Stalls, ctx.Query("q"))
	if ctx.Query("order") == string(reconciler.RoleEater) {
		stalls = reconciler.OrderForEater(stalls, availability)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list stalls", stallResponses(stalls, availability)))
}

func (c *sessionController) MarketStalls(ctx *fiber.Ctx) error {
	marketId, err := uuid.Parse(ctx.Params("marketId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid market id")
	}

	stalls, err := c.resolver.ListStalls(ctx.UserContext(), marketId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list stalls", stallResponses(stalls, nil)))
}

func stallResponses(stalls []*entity.Stall, availability map[uuid.UUID]bool) []dto.StallResponse {
	out := make([]dto.StallResponse, 0, len(stalls))
	for _, s := range stalls {
		out = append(out, mapper.StallToResponse(s, availability))
	}
	return out
}

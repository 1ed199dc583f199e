package handler

import (
	"errors"
	"strconv"

	"rental-scout/internal/delivery/http/middleware"
	"rental-scout/internal/pkg/response"
	"rental-scout/internal/repository"
	"rental-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	uc usecase.MatchUsecase
}

type updateMatchStatusRequest struct {
	Status string `json:"status"`
}

type setContactedRequest struct {
	Contacted bool `json:"contacted"`
}

func NewMatchHandler(uc usecase.MatchUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.ListMatches)
	r.Put("/:id/status", h.UpdateStatus)
	r.Put("/:id/contacted", h.SetContacted)
	r.Get("/:id/listing", h.GetListingDetail)
}

func (h *MatchHandler) ListMatches(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	f := repository.MatchFilter{
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}

	views, err := h.uc.ListMatches(c.Context(), userID, f)
	if err != nil {
		return mapMatchError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, views)
}

func (h *MatchHandler) UpdateStatus(c fiber.Ctx) error {
	userID, matchID, err := matchRequestIDs(c)
	if err != nil {
		return err
	}

	var req updateMatchStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	view, err := h.uc.UpdateStatus(c.Context(), userID, matchID, req.Status)
	if err != nil {
		return mapMatchError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, view)
}

func (h *MatchHandler) SetContacted(c fiber.Ctx) error {
	userID, matchID, err := matchRequestIDs(c)
	if err != nil {
		return err
	}

	var req setContactedRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	view, err := h.uc.SetContacted(c.Context(), userID, matchID, req.Contacted)
	if err != nil {
		return mapMatchError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, view)
}

func (h *MatchHandler) GetListingDetail(c fiber.Ctx) error {
	userID, matchID, err := matchRequestIDs(c)
	if err != nil {
		return err
	}

	view, err := h.uc.GetListingDetail(c.Context(), userID, matchID)
	if err != nil {
		return mapMatchError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, view)
}

func matchRequestIDs(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}
	return userID, matchID, nil
}

func queryInt(c fiber.Ctx, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func mapMatchError(err error) error {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound), errors.Is(err, usecase.ErrMatchForbidden):
		// Forbidden reads as not found so match ids don't leak ownership.
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, repository.ErrListingNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Listing not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidMatchStatus):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match status", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

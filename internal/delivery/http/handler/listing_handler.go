package handler

import (
	"errors"

	"rental-scout/internal/delivery/http/middleware"
	"rental-scout/internal/domain/user"
	"rental-scout/internal/pkg/response"
	"rental-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ListingHandler exposes the listing detail read and the on-demand
// refresh: one sync pass for the calling user, outside the recurring
// schedule.
type ListingHandler struct {
	sync    usecase.SyncUsecase
	matches usecase.MatchUsecase
	users   user.Repository
}

func NewListingHandler(sync usecase.SyncUsecase, matches usecase.MatchUsecase, users user.Repository) *ListingHandler {
	return &ListingHandler{sync: sync, matches: matches, users: users}
}

func (h *ListingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/refresh", h.Refresh)
	r.Get("/:id", h.GetListing)
}

// GetListing serves listing details through the caller's match; a match
// still in status new flips to viewed on this first read.
func (h *ListingHandler) GetListing(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid listing id", nil, err)
	}

	view, err := h.matches.GetListingByListingID(c.Context(), userID, listingID)
	if err != nil {
		return mapMatchError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, view)
}

func (h *ListingHandler) Refresh(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	usr, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	result := h.sync.SyncUser(c.Context(), usr)
	return response.Success(c, fiber.StatusOK, response.MessageOK, result)
}

package handler

import (
	"errors"

	"rental-scout/internal/delivery/http/middleware"
	"rental-scout/internal/domain/user"
	"rental-scout/internal/pkg/response"
	"rental-scout/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	uc usecase.UserUsecase
}

type updateProfileRequest struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	Phone               *string `json:"phone"`
	EmailAutomated      *bool   `json:"email_automated"`
	EmailReviewRequired *bool   `json:"email_review_required"`
}

func NewProfileHandler(uc usecase.UserUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.GetProfile)
	r.Put("/", h.UpdateProfile)
	r.Put("/preferences", h.UpdatePreferences)
}

func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	usr, err := h.uc.GetProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, profileView(usr))
}

func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	usr, err := h.uc.UpdateProfile(c.Context(), userID, user.ProfileUpdate{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Phone:               req.Phone,
		EmailAutomated:      req.EmailAutomated,
		EmailReviewRequired: req.EmailReviewRequired,
	})
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, profileView(usr))
}

func (h *ProfileHandler) UpdatePreferences(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var prefs user.Preferences
	if err := c.Bind().Body(&prefs); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	usr, err := h.uc.UpdatePreferences(c.Context(), userID, prefs)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, profileView(usr))
}

func mapProfileError(err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidPreferences):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid preferences", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func profileView(u user.User) map[string]any {
	return map[string]any{
		"id":                    u.ID,
		"email":                 u.Email,
		"first_name":            u.FirstName,
		"last_name":             u.LastName,
		"phone":                 u.Phone,
		"email_automated":       u.EmailAutomated,
		"email_review_required": u.EmailReviewRequired,
		"preferences":           u.Preferences,
		"created_at":            u.CreatedAt,
		"updated_at":            u.UpdatedAt,
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"salonsites-backend/internal/service"
)

type UserHandler struct {
	profileService service.ProfileService
}

func NewUserHandler(profileService service.ProfileService) *UserHandler {
	return &UserHandler{
		profileService: profileService,
	}
}

func userIDFromContext(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return userID, nil
}

func (h *UserHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	stats, err := h.profileService.Stats(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) GetProfileStatus(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	status, err := h.profileService.ProfileStatus(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, status)
}

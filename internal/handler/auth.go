package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/middleware"
	"salonsites-backend/internal/service"
)

type AuthHandler struct {
	autologinService service.AutologinService
}

func NewAuthHandler(autologinService service.AutologinService) *AuthHandler {
	return &AuthHandler{
		autologinService: autologinService,
	}
}

// GetToken is the endpoint the retry loop polls. It is a pure read: a
// request with no token available changes nothing on the backend.
func (h *AuthHandler) GetToken(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	token, err := h.autologinService.TokenForSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrTokenNotReady) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "token_not_ready",
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, &dto.TokenResponse{Token: token})
}

func (h *AuthHandler) CreateFallbackToken(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.FallbackTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	token, err := h.autologinService.CreateFallbackToken(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrTokenNotReady) || errors.Is(err, service.ErrOrderNotLinked) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "order_not_ready",
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, &dto.TokenResponse{Token: token})
}

// Autologin exchanges the one-time token for a session cookie.
func (h *AuthHandler) Autologin(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Token == "" || req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing token or session_id")
	}

	result, err := h.autologinService.Exchange(ctx, req.Token, req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"error":   "invalid_token",
			})
		}
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.SessionToken,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"redirectUrl": result.RedirectURL,
	})
}

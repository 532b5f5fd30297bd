package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) ConfirmCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ConfirmCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkoutService.ConfirmCheckout(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotSucceeded) {
			return c.JSON(http.StatusPaymentRequired, map[string]string{
				"error": err.Error(),
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.checkoutService.HandleWebhook(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return fmt.Errorf("handle webhook: %w", err)
	}

	return c.NoContent(http.StatusOK)
}

// CheckoutSuccess is the page the payment redirect lands on. It drives the
// retry flow in the browser against the same endpoints the Go client in
// internal/autologin uses.
func (h *CheckoutHandler) CheckoutSuccess(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.HTML(http.StatusBadRequest, missingSessionHTML)
	}

	return c.HTML(http.StatusOK, successPageHTML)
}

const missingSessionHTML = `
	<!DOCTYPE html>
	<html lang="es">
	<head>
		<meta charset="utf-8">
		<title>Sesión no encontrada</title>
		<style>
			body { font-family: Arial, sans-serif; text-align: center; margin-top: 80px; }
		</style>
	</head>
	<body>
		<h2>No se encontró la sesión de pago</h2>
		<p>Serás redirigido al inicio de sesión…</p>
		<script>
			setTimeout(function () { window.location.href = "/login"; }, 3000);
		</script>
	</body>
	</html>
	`

const successPageHTML = `
	<!DOCTYPE html>
	<html lang="es">
	<head>
		<meta charset="utf-8">
		<title>Preparando tu cuenta</title>
		<style>
			body { font-family: Arial, sans-serif; text-align: center; margin-top: 80px; }
			.status { font-size: 20px; font-weight: bold; }
		</style>
	</head>
	<body>
		<h2>Pago completado</h2>
		<p>Estamos preparando tu cuenta, esto puede tardar unos segundos.</p>
		<p class="status" id="status">Procesando…</p>

		<script>
			const sessionId = new URLSearchParams(window.location.search).get("session_id");
			const el = document.getElementById("status");

			async function poll() {
				const resp = await fetch("/api/auth/token?session_id=" + encodeURIComponent(sessionId));
				if (!resp.ok) return null;
				const data = await resp.json();
				return data.token;
			}

			async function exchange(token) {
				const resp = await fetch("/api/auth/autologin", {
					method: "POST",
					headers: { "Content-Type": "application/json" },
					body: JSON.stringify({ token: token, session_id: sessionId })
				});
				if (!resp.ok) return null;
				return (await resp.json()).redirectUrl;
			}

			let attempt = 0;
			const timer = setInterval(async function () {
				attempt++;
				el.textContent = "Intento " + attempt + " de 8…";
				const token = await poll().catch(function () { return null; });
				if (token) {
					clearInterval(timer);
					const url = await exchange(token).catch(function () { return null; });
					window.location.href = url || "/login?session_id=" + encodeURIComponent(sessionId);
					return;
				}
				if (attempt >= 8) {
					clearInterval(timer);
					el.textContent = "No pudimos iniciar tu sesión automáticamente.";
					window.location.href = "/login?session_id=" + encodeURIComponent(sessionId);
				}
			}, 5000);
		</script>
	</body>
	</html>
	`

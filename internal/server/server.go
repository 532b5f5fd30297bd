package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"salonsites-backend/internal/handler"
	mw "salonsites-backend/internal/middleware"
	"salonsites-backend/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	authHandler     *handler.AuthHandler
	userHandler     *handler.UserHandler
	jwtSecret       string
}

func NewServer(
	checkoutService service.CheckoutService,
	autologinService service.AutologinService,
	profileService service.ProfileService,
	jwtSecret string,
) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		authHandler:     handler.NewAuthHandler(autologinService),
		userHandler:     handler.NewUserHandler(profileService),
		jwtSecret:       jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- checkout --------
	api.POST("/checkout/confirm", s.checkoutHandler.ConfirmCheckout)
	s.echo.GET("/checkout/success", s.checkoutHandler.CheckoutSuccess)

	// -------- auto-login --------
	auth := api.Group("/auth")
	auth.GET("/token", s.authHandler.GetToken)
	auth.POST("/token/fallback", s.authHandler.CreateFallbackToken)
	auth.POST("/autologin", s.authHandler.Autologin)

	// -------- stripe webhooks --------
	api.POST("/stripe/webhook", s.checkoutHandler.StripeWebhook)

	// -------- authenticated --------
	users := api.Group("/users", mw.AuthMiddleware(s.jwtSecret))
	users.GET("/me/stats", s.userHandler.GetStats)
	users.GET("/me/profile-status", s.userHandler.GetProfileStatus)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

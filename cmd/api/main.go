package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"salonsites-backend/internal/client"
	"salonsites-backend/internal/config"
	"salonsites-backend/internal/repository"
	"salonsites-backend/internal/sender"
	"salonsites-backend/internal/server"
	"salonsites-backend/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.WithError(err).Fatal("Failed to parse config")
	}

	setupLogger(&cfg.Log)

	// A checkout-bearing frontend cannot render the payment element
	// without the publishable key, so refuse to start without it.
	if cfg.Stripe.PublishableKey == "" {
		log.Fatal("STRIPE_PUBLISHABLE_KEY is not set")
	}

	db, err := client.InitPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	rdb, err := client.InitRedisClient(cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	tokenStore := repository.NewRedisTokenStore(rdb)

	mailer := sender.NewSMTPSender(&cfg.SMTP)

	autologinService := service.NewAutologinService(
		tokenStore, orderRepo, userRepo,
		cfg.JWTSecret, cfg.AutoLogin.TokenTTL,
	)
	checkoutService := service.NewCheckoutService(
		db, stripeClient,
		userRepo, orderRepo, webhookEventRepo,
		autologinService, mailer,
	)
	profileService := service.NewProfileService(userRepo, orderRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(checkoutService, autologinService, profileService, cfg.JWTSecret)

	log.WithField("addr", serverAddr).Info("Starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Fatal("HTTP server shutdown error")
	}
}

func setupLogger(cfg *config.Log) {
	log.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

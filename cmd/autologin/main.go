package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"salonsites-backend/internal/autologin"
	"salonsites-backend/internal/config"
)

// autologin runs the post-payment login flow from the terminal, against the
// same endpoints the success page polls. Support uses it to replay a stuck
// session and watch every attempt.
func main() {
	sessionID := flag.String("session", "", "checkout session id to log in")
	baseURL := flag.String("base-url", "", "backend base URL (defaults to BASE_URL)")
	flag.Parse()

	if err := run(*sessionID, *baseURL); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func run(sessionID, baseURL string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := autologin.Policy{
		MaxAttempts:         cfg.AutoLogin.MaxAttempts,
		BaseDelay:           cfg.AutoLogin.BaseDelay,
		GrowthFactor:        cfg.AutoLogin.GrowthFactor,
		MaxDelay:            cfg.AutoLogin.MaxDelay,
		InitialWait:         cfg.AutoLogin.InitialWait,
		JitterMax:           cfg.AutoLogin.JitterMax,
		FallbackFromAttempt: cfg.AutoLogin.FallbackFromAttempt,
	}

	apiClient := autologin.NewClient(baseURL)
	retryer := autologin.NewRetryer(apiClient, policy)
	retryer.OnState(func(s autologin.State) {
		if s.NextRetryIn > 0 {
			fmt.Printf("\r⏳ Intento %d/%d — siguiente consulta en %s   ",
				s.Attempt, s.MaxAttempts, s.NextRetryIn.Round(time.Second))
			return
		}
		fmt.Printf("\r🔄 Intento %d/%d…                              ", s.Attempt, s.MaxAttempts)
	})

	flow := autologin.NewFlow(retryer, apiClient, baseURL+"/login")
	result := flow.Run(ctx, sessionID)
	fmt.Println()

	switch result.Phase {
	case autologin.PhaseSuccess:
		fmt.Printf("✅ %s\n", result.Message)
		fmt.Printf("   Redirección: %s\n", result.RedirectURL)
		return nil
	case autologin.PhaseFallback:
		fmt.Printf("⚠️ %s\n", result.Message)
		fmt.Printf("   Acceso manual: %s\n", result.ManualLoginURL)
		return result.Err
	default:
		fmt.Printf("⚠️ %s\n", result.Message)
		return fmt.Errorf("flujo terminado en fase %s", result.Phase)
	}
}

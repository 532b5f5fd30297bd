package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:"dev-only-change-in-production"`

	Stripe    Stripe    `envPrefix:"STRIPE_"`
	SMTP      SMTP      `envPrefix:"SMTP_"`
	AutoLogin AutoLogin `envPrefix:"AUTOLOGIN_"`
}

type Stripe struct {
	SecretKey      string `env:"SECRET_KEY"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	PublishableKey string `env:"PUBLISHABLE_KEY"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"MAIL_FROM"`
}

// AutoLogin holds the token retry policy. The defaults are the reference
// behavior; deployments can tune them per environment.
type AutoLogin struct {
	MaxAttempts         int           `env:"MAX_ATTEMPTS" envDefault:"8"`
	BaseDelay           time.Duration `env:"BASE_DELAY" envDefault:"2s"`
	GrowthFactor        float64       `env:"GROWTH_FACTOR" envDefault:"1.5"`
	MaxDelay            time.Duration `env:"MAX_DELAY" envDefault:"30s"`
	InitialWait         time.Duration `env:"INITIAL_WAIT" envDefault:"5s"`
	JitterMax           time.Duration `env:"JITTER_MAX" envDefault:"1s"`
	FallbackFromAttempt int           `env:"FALLBACK_FROM_ATTEMPT" envDefault:"3"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

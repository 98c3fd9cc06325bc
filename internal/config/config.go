package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	// BotAPIKey is the shared secret the Telegram bot presents to the
	// token and registration endpoints.
	BotAPIKey string `envconfig:"BOT_API_KEY" required:"true"`

	// Payment settings. Amount is in the smallest currency unit;
	// Telegram Stars have no sub-unit, so the default is 1 XTR.
	PredictionPrice    int64  `envconfig:"PREDICTION_PRICE" default:"1"`
	PredictionCurrency string `envconfig:"PREDICTION_CURRENCY" default:"XTR"`

	TokenTTLMinutes int `envconfig:"TOKEN_TTL_MINUTES" default:"10080"`

	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"./migrations"`
}

// BotConfig holds the settings for the Telegram bot process.
type BotConfig struct {
	BotToken   string `envconfig:"BOT_TOKEN" required:"true"`
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	BotAPIKey  string `envconfig:"BOT_API_KEY" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadBot() (*BotConfig, error) {
	var cfg BotConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	LogLevel  string
	LogFormat string

	PosthogAPIKey      string
	PosthogEndpoint    string
	RateLimit          string
	CORSAllowedOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	Matching                matching.Config
	BulkConcurrency         int
	SuggestionsDefaultLimit int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	defaults := matching.DefaultConfig()

	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "reconciliation-events")

	v.SetDefault("RECON_MAX_WINDOW_DAYS", defaults.MaxWindowDays)
	v.SetDefault("RECON_SUGGEST_THRESHOLD", defaults.SuggestThreshold)
	v.SetDefault("RECON_AUTO_MATCH_ENABLED", defaults.AutoMatchEnabled)
	v.SetDefault("RECON_AUTO_MATCH_CONFIDENCE", defaults.AutoMatchConfidence)
	v.SetDefault("RECON_AUTO_MATCH_DESCRIPTION_SIMILARITY", defaults.AutoMatchDescriptionSimilarity)
	v.SetDefault("RECON_WEIGHT_AMOUNT", defaults.Weights.Amount)
	v.SetDefault("RECON_WEIGHT_DATE", defaults.Weights.Date)
	v.SetDefault("RECON_WEIGHT_DESCRIPTION", defaults.Weights.Description)
	v.SetDefault("RECON_ACCOUNT_BONUS", defaults.Weights.AccountBonus)
	v.SetDefault("RECON_FX_ENABLED", defaults.FXEnabled)
	v.SetDefault("RECON_FX_TOLERANCE_CENTS", defaults.FXToleranceCents)
	v.SetDefault("RECON_BULK_CONCURRENCY", 4)
	v.SetDefault("RECON_SUGGESTIONS_DEFAULT_LIMIT", 5)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:     v.GetString("PGSQL_URL"),
		Port:            v.GetString("PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:   v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		PosthogAPIKey:   v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint: v.GetString("POSTHOG_ENDPOINT"),
		RateLimit:       v.GetString("RATE_LIMIT"),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("Warning: KAFKA_BROKERS not set. Reconciliation events will only be logged.")
	}

	cfg.Matching = matching.Config{
		MaxWindowDays:                  v.GetInt("RECON_MAX_WINDOW_DAYS"),
		SuggestThreshold:               v.GetFloat64("RECON_SUGGEST_THRESHOLD"),
		AutoMatchEnabled:               v.GetBool("RECON_AUTO_MATCH_ENABLED"),
		AutoMatchConfidence:            v.GetFloat64("RECON_AUTO_MATCH_CONFIDENCE"),
		AutoMatchDescriptionSimilarity: v.GetFloat64("RECON_AUTO_MATCH_DESCRIPTION_SIMILARITY"),
		Weights: matching.Weights{
			Amount:       v.GetFloat64("RECON_WEIGHT_AMOUNT"),
			Date:         v.GetFloat64("RECON_WEIGHT_DATE"),
			Description:  v.GetFloat64("RECON_WEIGHT_DESCRIPTION"),
			AccountBonus: v.GetFloat64("RECON_ACCOUNT_BONUS"),
		},
		FXEnabled:        v.GetBool("RECON_FX_ENABLED"),
		FXToleranceCents: v.GetInt64("RECON_FX_TOLERANCE_CENTS"),
	}
	if err := cfg.Matching.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	cfg.BulkConcurrency = v.GetInt("RECON_BULK_CONCURRENCY")
	if cfg.BulkConcurrency < 1 {
		log.Printf("Warning: Invalid value for RECON_BULK_CONCURRENCY (%d). Defaulting to 4.\n", cfg.BulkConcurrency)
		cfg.BulkConcurrency = 4
	}
	cfg.SuggestionsDefaultLimit = v.GetInt("RECON_SUGGESTIONS_DEFAULT_LIMIT")
	if cfg.SuggestionsDefaultLimit < 1 {
		log.Printf("Warning: Invalid value for RECON_SUGGESTIONS_DEFAULT_LIMIT (%d). Defaulting to 5.\n", cfg.SuggestionsDefaultLimit)
		cfg.SuggestionsDefaultLimit = 5
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

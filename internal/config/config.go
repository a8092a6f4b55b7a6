package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultDatabasePath = "data/mealplanner.db"
	defaultJWTIssuer    = "family-meal-planner"
	defaultJWTTTL       = 24 * time.Hour
	defaultPort         = "8080"
	defaultSyncInterval = 5 * time.Second
)

// DefaultStaples are offered for quick-add when no staples file is configured.
var DefaultStaples = []string{"Milk", "Bread", "Eggs", "Butter", "Cheese", "Coffee", "Rice", "Pasta"}

// Config holds the configuration for the application.
type Config struct {
	DatabasePath     string
	CheckedStatePath string
	StaplesPath      string
	Port             string

	// How often a long-running process reloads the shopping list so edits
	// made by other processes reach its websocket clients.
	ShoppingSyncInterval time.Duration

	GeminiAPIKey string
	GroqAPIKey   string

	// API auth
	JWTSecret             string
	JWTIssuer             string
	JWTTTL                time.Duration
	HouseholdPasswordHash string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	dbPath := os.Getenv("MEALPLANNER_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDatabasePath
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = defaultJWTIssuer
	}

	ttl := defaultJWTTTL
	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer, got %q", raw)
		}
		ttl = time.Duration(hours) * time.Hour
	}

	syncInterval := defaultSyncInterval
	if raw := os.Getenv("SHOPPING_SYNC_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("SHOPPING_SYNC_SECONDS must be a positive integer, got %q", raw)
		}
		syncInterval = time.Duration(seconds) * time.Second
	}

	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		adminID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		DatabasePath:           dbPath,
		CheckedStatePath:       os.Getenv("CHECKED_STATE_FILE"),
		StaplesPath:            os.Getenv("STAPLES_FILE"),
		Port:                   port,
		ShoppingSyncInterval:   syncInterval,
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              issuer,
		JWTTTL:                 ttl,
		HouseholdPasswordHash:  os.Getenv("HOUSEHOLD_PASSWORD_HASH"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// RequireServer checks the settings the HTTP API cannot start without.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.HouseholdPasswordHash == "" {
		return fmt.Errorf("HOUSEHOLD_PASSWORD_HASH environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings the Telegram bot cannot start without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// RequireAI checks that at least one language model provider is configured.
func (c *Config) RequireAI() error {
	if c.GeminiAPIKey == "" && c.GroqAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY or GROQ_API_KEY environment variable not set")
	}
	return nil
}

type staplesFile struct {
	Staples []string `yaml:"staples"`
}

// LoadStaples reads the quick-add staples from a YAML file of the form
//
//	staples:
//	  - Milk
//	  - Bread
//
// An empty path yields DefaultStaples.
func LoadStaples(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultStaples...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staples file %s: %w", path, err)
	}

	var f staplesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse staples file %s: %w", path, err)
	}

	staples := make([]string, 0, len(f.Staples))
	for _, s := range f.Staples {
		if s = strings.TrimSpace(s); s != "" {
			staples = append(staples, s)
		}
	}
	return staples, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

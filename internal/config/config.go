package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds webhookd configuration values.
type Config struct {
	Env string `validate:"required,oneof=dev prod test"`
	API struct {
		Key        string `validate:"required"`
		BaseURL    string `validate:"omitempty,url"`
		Timeout    time.Duration
		MaxRetries int `validate:"gte=0,lte=10"`
	}
	Webhook struct {
		Secret    string `validate:"required"`
		Tolerance time.Duration
		Addr      string `validate:"required"`
	}
	Store struct {
		Driver string `validate:"required,oneof=sqlite postgres"`
		Path   string
		DSN    string
	}
	Reconcile struct {
		Cron      string `validate:"required"`
		BatchSize int    `validate:"gt=0"`
	}
	Telegram struct {
		Token  string
		ChatID int64
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.API.Key = os.Getenv("HUMANRAIL_API_KEY")
	c.API.BaseURL = os.Getenv("HUMANRAIL_BASE_URL")
	c.API.Timeout = getduration("HUMANRAIL_TIMEOUT", 30*time.Second)
	c.API.MaxRetries = getint("HUMANRAIL_MAX_RETRIES", 3)
	c.Webhook.Secret = os.Getenv("WEBHOOK_SECRET")
	c.Webhook.Tolerance = getduration("WEBHOOK_TOLERANCE", 5*time.Minute)
	c.Webhook.Addr = getenv("WEBHOOK_ADDR", ":8080")
	c.Store.Driver = getenv("STORE_DRIVER", "sqlite")
	c.Store.Path = getenv("STORE_PATH", "data/events.db")
	c.Store.DSN = os.Getenv("STORE_DSN")
	c.Reconcile.Cron = getenv("RECONCILE_CRON", "*/2 * * * *")
	c.Reconcile.BatchSize = getint("RECONCILE_BATCH_SIZE", 100)
	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Telegram.ChatID = getint64("TELEGRAM_CHAT_ID", 0)
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/webhookd.log")

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return Config{}, errors.New("STORE_DSN required when STORE_DRIVER is postgres")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return Config{}, errors.New("TELEGRAM_CHAT_ID required when TELEGRAM_BOT_TOKEN is set")
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

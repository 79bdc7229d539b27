package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultAPIURL = "https://sunnah-store-server-azure.vercel.app"

type Config struct {
	Addr     string
	AppEnv   string
	LogLevel string
	SiteName string

	CommerceAPIURL     string
	CommerceAPITimeout time.Duration
	StaleTime          time.Duration
	LoadingThreshold   time.Duration
	PageSize           int

	SessionSecret string
	SessionTTL    time.Duration

	MongoURI string
	DBName   string

	KafkaBrokers []string
	EventsTopic  string
}

// Load reads envFile (".env" when empty) if it exists, then the environment.
// It returns the .env error, if any, for the caller to log; a missing .env is
// not fatal.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	envErr := godotenv.Load(envFile)

	cfg := Config{
		Addr:     ":" + getEnvOrDefault("PORT", "8080"),
		AppEnv:   getEnvOrDefault("APP_ENV", "prod"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		SiteName: getEnvOrDefault("SITE_NAME", "Sunnah Store"),

		CommerceAPIURL:     getEnvOrDefault("COMMERCE_API_URL", defaultAPIURL),
		CommerceAPITimeout: getDurationEnv("COMMERCE_API_TIMEOUT", 10, time.Second),
		StaleTime:          getDurationEnv("STALE_TIME", 5, time.Minute),
		LoadingThreshold:   getDurationEnv("LOADING_THRESHOLD", 1500, time.Millisecond),
		PageSize:           getIntEnv("PAGE_SIZE", 20),

		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
		SessionTTL:    getDurationEnv("SESSION_TTL", 30, 24*time.Hour),

		MongoURI: getEnvOrDefault("MONGO_URI", ""),
		DBName:   getEnvOrDefault("DB_NAME", "storefront"),

		KafkaBrokers: getListEnv("KAFKA_BROKERS"),
		EventsTopic:  getEnvOrDefault("EVENTS_TOPIC", "storefront-shopper-events"),
	}

	return cfg, envErr
}

func (c Config) Validate() error {
	if c.SessionSecret == "" && c.AppEnv != "dev" {
		return errors.New("SESSION_SECRET is required outside dev")
	}
	return nil
}

// Fields lists the settings worth logging at startup. Secrets and
// connection strings are left out.
func (c Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("addr", c.Addr),
		zap.String("appEnv", c.AppEnv),
		zap.String("commerceAPI", c.CommerceAPIURL),
		zap.Duration("staleTime", c.StaleTime),
		zap.Duration("loadingThreshold", c.LoadingThreshold),
		zap.Int("pageSize", c.PageSize),
		zap.Bool("mongo", c.MongoURI != ""),
		zap.Strings("kafkaBrokers", c.KafkaBrokers),
	}
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderMemory    = "memory"
	ProviderAppScript = "appscript"
	ProviderPostgres  = "postgres"
)

const minSecretLength = 32

type Config struct {
	Port                   string
	AllowedOrigin          string
	Provider               string
	ScriptURL              string
	DatabaseURL            string
	ProviderTimeoutSeconds int
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	CatalogCacheTTLSeconds int
	KafkaBrokers           string
	KafkaTopic             string
	SessionSecret          string
	SessionTTLMinutes      int
	POPrefix               string
	PaymentMethods         []string
	SearchLimit            int
}

// Load reads the environment. A .env file in the working directory is
// applied first when present; real environment variables win over it.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] WARN: .env not loaded: %v", err)
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		Provider:               strings.ToLower(strings.TrimSpace(getEnv("PROVIDER", ProviderMemory))),
		ScriptURL:              strings.TrimSpace(os.Getenv("SCRIPT_URL")),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		ProviderTimeoutSeconds: getPositiveInt("PROVIDER_TIMEOUT_SECONDS", 15),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getNonNegativeInt("REDIS_DB", 0),
		CatalogCacheTTLSeconds: getPositiveInt("CATALOG_CACHE_TTL_SECONDS", 60),
		KafkaBrokers:           strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:             getEnv("KAFKA_TOPIC", "po.submitted"),
		SessionSecret:          strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTLMinutes:      getPositiveInt("SESSION_TTL_MINUTES", 480),
		POPrefix:               strings.TrimSpace(getEnv("PO_PREFIX", "PO")),
		PaymentMethods:         splitList(getEnv("PAYMENT_METHODS", "KREDIT,CASH,COD,DP")),
		SearchLimit:            getPositiveInt("SEARCH_LIMIT", 100),
	}
	if len(cfg.PaymentMethods) == 0 {
		cfg.PaymentMethods = []string{"KREDIT", "CASH", "COD", "DP"}
	}
	return cfg
}

// Validate reports the first setting that keeps the server from starting.
func (c Config) Validate() error {
	if len(c.SessionSecret) < minSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength)
	}
	switch c.Provider {
	case ProviderMemory:
	case ProviderAppScript:
		if c.ScriptURL == "" {
			return errors.New("SCRIPT_URL is required for the appscript provider")
		}
	case ProviderPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}
	if c.POPrefix == "" {
		return errors.New("PO_PREFIX must not be empty")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(getEnv(key, strconv.Itoa(fallback))))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func getNonNegativeInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(getEnv(key, strconv.Itoa(fallback))))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

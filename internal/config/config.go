package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string // sqlite | postgres
	DBDSN    string

	LogFile   string // empty: stdout only
	LogLevel  string
	LogFormat string // json | console

	JWTSecret string
	JWTIssuer string

	// Empty RedisAddr disables the shared write limiter.
	RedisAddr string
	RedisPass string
	RedisDB   int
	RLLimit   int
	RLWindow  time.Duration

	WriteRetries  int
	SignupCredits int64
	Seed          bool
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),

		LogFile:   getEnv("LOG_FILE", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		RedisDB:   getInt("REDIS_DB", 0),
		RLLimit:   getInt("RL_LIMIT", 60),
		RLWindow:  time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second,

		WriteRetries:  getInt("WRITE_RETRIES", 5),
		SignupCredits: int64(getInt("SIGNUP_CREDITS", 100)),
	}

	seed, err := getBool("SEED", true)
	if err != nil {
		return cfg, err
	}
	cfg.Seed = seed

	switch cfg.DBDriver {
	case "sqlite":
		cfg.DBDSN = getEnv("DB_DSN", "showroom.db") // sqlite file in project root
	case "postgres":
		cfg.DBDSN = getEnv("DB_DSN", "")
		if cfg.DBDSN == "" {
			return cfg, fmt.Errorf("missing DB_DSN for DB_DRIVER=postgres")
		}
	default:
		return cfg, fmt.Errorf("invalid DB_DRIVER %q (want sqlite or postgres)", cfg.DBDriver)
	}
	if cfg.WriteRetries < 1 {
		return cfg, fmt.Errorf("WRITE_RETRIES must be >= 1, got %d", cfg.WriteRetries)
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return def, fmt.Errorf("invalid boolean env %s=%q", k, v)
}

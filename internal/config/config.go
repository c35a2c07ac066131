package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName      string
	Env          string
	Debug        bool
	Port         string
	DatabaseURL  string
	AllowOrigins []string

	LogLevel        string
	LogFormat       string
	LogstashTCPAddr string

	SessionTTL time.Duration

	PasswordTimeCost    uint32
	PasswordMemoryCost  uint32
	PasswordParallelism uint8
	PasswordHashLength  uint32
	PasswordSaltLength  uint32

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnectRetries  uint64
	AutoMigrate       bool
	SlowRequestThresh time.Duration

	EnableMetrics bool
	EnableSwagger bool
}

var (
	once    sync.Once
	cached  Config
	failure any
)

// Get loads the configuration on first use and returns the same value for
// the life of the process. A failed first load panics on every call.
func Get() Config {
	once.Do(func() {
		defer func() { failure = recover() }()
		cached = Load()
	})
	if failure != nil {
		panic(failure)
	}
	return cached
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		AppName:      getenv("APP_NAME", "web-starter-api"),
		Env:          getenv("ENV", "development"),
		Debug:        getenv("DEBUG", "false") == "true",
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  must("DATABASE_URL"),
		AllowOrigins: splitAndTrim(getenv("ALLOW_ORIGINS", "*")),

		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenv("LOG_FORMAT", "json")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		SessionTTL: duration("SESSION_TTL", 24*time.Hour),

		PasswordTimeCost:    uint32(unsigned("PASSWORD_ARGON2_TIME_COST", 2, 32)),
		PasswordMemoryCost:  uint32(unsigned("PASSWORD_ARGON2_MEMORY_COST", 102400, 32)),
		PasswordParallelism: uint8(unsigned("PASSWORD_ARGON2_PARALLELISM", 8, 8)),
		PasswordHashLength:  uint32(unsigned("PASSWORD_ARGON2_HASH_LENGTH", 32, 32)),
		PasswordSaltLength:  uint32(unsigned("PASSWORD_ARGON2_SALT_LENGTH", 16, 32)),

		DBMaxOpenConns:    integer("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    integer("DB_MAX_IDLE_CONNS", 5),
		DBConnectRetries:  unsigned("DB_CONNECT_RETRIES", 5, 64),
		AutoMigrate:       getenv("AUTO_MIGRATE", "false") == "true",
		SlowRequestThresh: duration("SLOW_REQUEST_THRESHOLD", time.Second),

		EnableMetrics: getenv("ENABLE_METRICS", "true") == "true",
		EnableSwagger: getenv("ENABLE_SWAGGER", "true") == "true",
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func duration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func integer(k string, d int) int {
	if v, err := strconv.Atoi(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func unsigned(k string, d uint64, bits int) uint64 {
	if v, err := strconv.ParseUint(getenv(k, ""), 10, bits); err == nil && v > 0 {
		return v
	}
	return d
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

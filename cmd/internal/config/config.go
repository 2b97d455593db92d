package config

import (
	"cnpjapi/cmd/internal/infrastructure/broker"
	"cnpjapi/cmd/internal/infrastructure/cache"
	"cnpjapi/cmd/internal/infrastructure/opencnpj"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

const (
	CacheRedis    = "redis"
	CacheDatabase = "database"
)

type Config struct {
	Port       string
	Production bool
	Version    string
	LogLevel   log.Lvl
	BodyLimit  string

	DatabaseURL     string
	DatabasePath    string
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	Migrations      bool
	DBDebug         bool

	OpenCNPJBaseURL string
	OpenCNPJRPS     float64
	OpenCNPJBurst   int

	// LookupCache is empty (disabled), CacheRedis or CacheDatabase.
	LookupCache    string
	LookupCacheTTL time.Duration
	RedisURL       string

	RabbitMQURL   string
	RabbitMQQueue string

	S3BucketName string
	S3Region     string
}

// Load reads the process environment. It must run after .env or SSM
// parameters were exported. Bad values fall back to defaults with a warning.
func Load() Config {
	return Config{
		Port:       getenv("PORT", "3001"),
		Production: os.Getenv("GO_ENV") == "production",
		Version:    getenv("APP_VERSION", "1.0.0"),
		LogLevel:   parseLevel(os.Getenv("LOG_LEVEL")),
		BodyLimit:  getenv("BODY_LIMIT", "1M"),

		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabasePath:    getenv("DATABASE_PATH", "database.db"),
		MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 10),
		ConnMaxIdleTime: parseDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
		ConnectTimeout:  parseDuration("DB_CONNECT_TIMEOUT", 2*time.Second),
		Migrations:      os.Getenv("MIGRATIONS") == "1",
		DBDebug:         parseBool("DB_DEBUG", false),

		OpenCNPJBaseURL: getenv("OPEN_CNPJ_BASE_URL", opencnpj.DefaultBaseURL),
		OpenCNPJRPS:     parseFloat("OPEN_CNPJ_RPS", 50),
		OpenCNPJBurst:   parseInt("OPEN_CNPJ_BURST", 50),

		LookupCache:    parseCacheKind(os.Getenv("LOOKUP_CACHE")),
		LookupCacheTTL: parseDuration("LOOKUP_CACHE_TTL", cache.DefaultTTL),
		RedisURL:       os.Getenv("REDIS_URL"),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue: getenv("RABBITMQ_QUEUE", broker.DefaultQueue),

		S3BucketName: os.Getenv("S3_BUCKET_NAME"),
		S3Region:     getenv("AWS_S3_REGION", "us-east-2"),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("invalid value %q for %s, using %d", v, key, def)
		return def
	}
	return n
}

func parseFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Warnf("invalid value %q for %s, using %v", v, key, def)
		return def
	}
	return f
}

func parseDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warnf("invalid duration %q for %s, using %s", v, key, def)
		return def
	}
	return d
}

func parseBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("invalid boolean %q for %s, using %t", v, key, def)
		return def
	}
	return b
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func parseCacheKind(s string) string {
	switch kind := strings.ToLower(strings.TrimSpace(s)); kind {
	case "", CacheRedis, CacheDatabase:
		return kind
	default:
		log.Warnf("unknown LOOKUP_CACHE %q, lookup cache disabled", s)
		return ""
	}
}

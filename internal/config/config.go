package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required to verify session tokens")

type Config struct {
	Port            string
	BackendURL      string
	GraphQLURL      string
	RedisAddr       string
	DBShards        []string
	KafkaBrokers    []string
	OrderTopic      string
	ConsumerGroup   string
	SessionTTL      time.Duration
	GraphQLCacheTTL time.Duration
	HTTPTimeout     time.Duration
	SessionCookie   string
	StaticDir       string
	RateLimit       float64
	RateBurst       int
	JWTSecret       string
}

// Load reads the environment, seeding it from files (default ".env") when
// they exist. Variables already set win over the files.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		logger.Info().Msg("No .env file found, using environment variables")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080/api/v1"), "/"),
		GraphQLURL:      getEnv("GRAPHQL_URL", "http://localhost:8080/graphql"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		DBShards:        getList("DB_SHARDS", "root:@tcp(127.0.0.1:3306)/storefront-shard-1?parseTime=true"),
		KafkaBrokers:    getKafkaBrokerURLs(),
		OrderTopic:      getEnv("ORDER_TOPIC", "order-topic"),
		ConsumerGroup:   getEnv("CONSUMER_GROUP", "storefront-gateway"),
		SessionTTL:      getDuration("SESSION_TTL", 24*time.Hour),
		GraphQLCacheTTL: getDuration("GRAPHQL_CACHE_TTL", 5*time.Minute),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 15*time.Second),
		SessionCookie:   getEnv("SESSION_COOKIE", "storefront_session"),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		RateLimit:       getFloat("RATE_LIMIT", 20),
		RateBurst:       getInt("RATE_BURST", 40),
		JWTSecret:       os.Getenv("JWT_SECRET"),
	}
}

// Validate reports settings the gateway cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		logger.Warn().Err(err).Msgf("Invalid %s, using %s", key, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		logger.Warn().Err(err).Msgf("Invalid %s, using %d", key, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64)), 64)
	if err != nil {
		logger.Warn().Err(err).Msgf("Invalid %s, using %v", key, defaultValue)
		return defaultValue
	}
	return f
}

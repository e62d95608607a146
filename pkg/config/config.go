package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/richxcame/postguard/pkg/textutil"
)

// Cache backends accepted by URLCacheConfig.Backend
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
	CacheBackendMemory   = "memory"
)

// DefaultPhishingKeywords is the keyword set used when PHISHING_KEYWORDS is unset
var DefaultPhishingKeywords = []string{
	"free", "win", "winner", "verify", "account", "suspension", "password", "urgent", "confirm",
	"secure", "claim", "prize", "click", "update", "login", "bank", "ssn", "transfer",
}

// DefaultShortenerDomains is the domain set used when SHORTENER_DOMAINS is unset
var DefaultShortenerDomains = []string{
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "is.gd", "buff.ly",
}

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Reputation ReputationConfig
	Detection  DetectionConfig
	URLCache   URLCacheConfig
	Classifier ClassifierConfig
	Features   FeaturesConfig
	Events     EventsConfig
	Sentry     SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins

	// RequestTimeout bounds each /api/v1 request
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ReputationConfig holds the URL reputation service configuration
type ReputationConfig struct {
	Enabled         bool
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerTimeout  int // in seconds
}

// DetectionConfig holds fusion, escalation and scheduling settings
type DetectionConfig struct {
	ProbabilityThreshold float64
	EscalationThreshold  int
	Interval             time.Duration
	ClaimTimeout         time.Duration
	PhishingKeywords     []string
	ShortenerDomains     []string
}

// URLCacheConfig holds reputation cache settings
type URLCacheConfig struct {
	Backend    string
	TTL        time.Duration // zero means entries never expire
	MaxEntries int
}

// ClassifierConfig holds bootstrap classifier training settings
type ClassifierConfig struct {
	Seed    uint64
	Samples int
}

// FeaturesConfig holds defaults for account metadata features
type FeaturesConfig struct {
	DefaultAccountAgeDays float64
	DefaultFollowerRatio  float64
}

// EventsConfig holds NATS configuration
type EventsConfig struct {
	NATSURL string
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
			RequestTimeout: getEnvAsSeconds("REQUEST_TIMEOUT_SECONDS", 30),
			MaxBodyBytes:   int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "postguard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Reputation: ReputationConfig{
			Enabled:         getEnvAsBool("REPUTATION_CHECKING_ENABLED", true),
			APIKey:          getEnv("REPUTATION_API_KEY", ""),
			BaseURL:         getEnv("REPUTATION_BASE_URL", "https://safebrowsing.googleapis.com"),
			Timeout:         getEnvAsSeconds("REPUTATION_TIMEOUT_SECONDS", 6),
			BreakerFailures: getEnvAsInt("REPUTATION_BREAKER_FAILURES", 5),
			BreakerTimeout:  getEnvAsInt("REPUTATION_BREAKER_TIMEOUT_SECONDS", 30),
		},
		Detection: DetectionConfig{
			ProbabilityThreshold: getEnvAsFloat("FRAUD_PROBABILITY_THRESHOLD", 0.70),
			EscalationThreshold:  getEnvAsInt("ACCOUNT_ESCALATION_THRESHOLD", 2),
			Interval:             getEnvAsSeconds("DETECTION_INTERVAL_SECONDS", 2),
			ClaimTimeout:         getEnvAsSeconds("DETECTION_CLAIM_TIMEOUT_SECONDS", 300),
			PhishingKeywords:     getEnvAsList("PHISHING_KEYWORDS", DefaultPhishingKeywords),
			ShortenerDomains:     getEnvAsList("SHORTENER_DOMAINS", DefaultShortenerDomains),
		},
		URLCache: URLCacheConfig{
			Backend:    strings.ToLower(getEnv("URL_CACHE_BACKEND", CacheBackendPostgres)),
			TTL:        getEnvAsSeconds("URL_CACHE_TTL_SECONDS", 86400),
			MaxEntries: getEnvAsInt("URL_CACHE_MAX_ENTRIES", 10000),
		},
		Classifier: ClassifierConfig{
			Seed:    uint64(getEnvAsInt("CLASSIFIER_SEED", 42)),
			Samples: getEnvAsInt("CLASSIFIER_SAMPLES", 1000),
		},
		Features: FeaturesConfig{
			DefaultAccountAgeDays: getEnvAsFloat("FEATURE_DEFAULT_ACCOUNT_AGE_DAYS", 365),
			DefaultFollowerRatio:  getEnvAsFloat("FEATURE_DEFAULT_FOLLOWER_RATIO", 1.0),
		},
		Events: EventsConfig{
			NATSURL: getEnv("NATS_URL", ""),
		},
		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the detection core cannot run without
func (c *Config) Validate() error {
	if c.Detection.ProbabilityThreshold < 0 || c.Detection.ProbabilityThreshold > 1 {
		return fmt.Errorf("FRAUD_PROBABILITY_THRESHOLD must be within [0,1], got %v", c.Detection.ProbabilityThreshold)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Detection.Interval <= 0 {
		return fmt.Errorf("DETECTION_INTERVAL_SECONDS must be positive")
	}
	if c.Detection.ClaimTimeout <= 0 {
		return fmt.Errorf("DETECTION_CLAIM_TIMEOUT_SECONDS must be positive")
	}
	if c.Reputation.Timeout <= 0 {
		return fmt.Errorf("REPUTATION_TIMEOUT_SECONDS must be positive")
	}
	switch c.URLCache.Backend {
	case CacheBackendPostgres, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("unknown URL_CACHE_BACKEND %q", c.URLCache.Backend)
	}
	if c.URLCache.TTL < 0 {
		return fmt.Errorf("URL_CACHE_TTL_SECONDS must not be negative")
	}
	return nil
}

// ReputationActive reports whether outbound reputation lookups should be made.
// A missing API key turns checking off.
func (c *ReputationConfig) ReputationActive() bool {
	return c.Enabled && c.APIKey != ""
}

// DSN returns the connection string used by the pgx pool
func (c *DatabaseConfig) DSN() string {
	return c.connURL("postgres")
}

// URL returns the connection string for the migration driver
func (c *DatabaseConfig) URL() string {
	return c.connURL("pgx5")
}

// connURL builds a connection URL with escaped credentials
func (c *DatabaseConfig) connURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return append([]string(nil), defaultValue...)
	}
	return textutil.LowerAll(strings.Split(valueStr, ","))
}

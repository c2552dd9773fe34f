package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	APIToken    string

	OTLPEndpoint string

	Remote    RemoteConfig
	Reconcile ReconcileConfig
	Session   SessionConfig
	Document  DocumentConfig
}

// RemoteConfig points at the back-office REST API that owns invoices and lines.
type RemoteConfig struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	ContentionMarkers []string
}

// ReconcileConfig tunes line synchronization against the remote store.
type ReconcileConfig struct {
	BatchSize   int
	BatchDelay  time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

type SessionConfig struct {
	Store     string
	TTL       time.Duration
	RedisAddr string
	RedisDB   int
}

type DocumentConfig struct {
	LogoPath       string
	CompanyProfile string
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// DefaultContentionMarker is what the remote store reports when a write
// lost the race for its storage lock.
const DefaultContentionMarker = "database is locked"

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "fiberdesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		APIToken:     strings.TrimSpace(getenv("API_TOKEN", "")),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Remote: RemoteConfig{
			BaseURL:           strings.TrimRight(strings.TrimSpace(getenv("REMOTE_API_BASE_URL", "http://localhost:8000/api")), "/"),
			Token:             strings.TrimSpace(getenv("REMOTE_API_TOKEN", "")),
			Timeout:           getenvDuration("REMOTE_API_TIMEOUT", 30*time.Second),
			ContentionMarkers: parseList(getenv("REMOTE_CONTENTION_MARKERS", DefaultContentionMarker)),
		},
		Reconcile: ReconcileConfig{
			BatchSize:   getenvInt("RECONCILE_BATCH_SIZE", 2),
			BatchDelay:  getenvDuration("RECONCILE_BATCH_DELAY", 200*time.Millisecond),
			MaxAttempts: getenvInt("RECONCILE_MAX_ATTEMPTS", 3),
			BaseDelay:   getenvDuration("RECONCILE_BASE_DELAY", 100*time.Millisecond),
		},
		Session: SessionConfig{
			Store:     normalizeStore(getenv("SESSION_STORE", SessionStoreMemory)),
			TTL:       getenvDuration("SESSION_TTL", 2*time.Hour),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			RedisDB:   getenvInt("REDIS_DB", 0),
		},
		Document: DocumentConfig{
			LogoPath:       strings.TrimSpace(getenv("DOCUMENT_LOGO_PATH", "")),
			CompanyProfile: strings.TrimSpace(getenv("COMPANY_PROFILE", "")),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeStore(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case SessionStoreRedis:
		return SessionStoreRedis
	default:
		return SessionStoreMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

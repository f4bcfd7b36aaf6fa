// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Oracle providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Conversation store backends
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

const defaultCancellationPolicy = "Cancellations made more than 24 hours before departure are " +
	"eligible for a full refund to the original payment method within 7 working days. " +
	"Cancellations within 24 hours of departure are refunded minus the airline cancellation fee."

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Postgres
	PGHost        string
	PGPort        int
	PGDatabase    string
	PGUser        string
	PGPassword    string
	PGSSLMode     string
	RunMigrations bool

	// Oracle
	OracleProvider string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ModelName      string
	GeminiAPIKey   string
	GeminiModel    string
	Temperature    float64

	// Conversation store
	ConversationBackend string
	ConversationTTL     time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Redis
	RedisURL string

	// Retrieval
	RetrieverURL       string
	RetrieverTopK      int
	PolicyDocsDir      string
	CancellationPolicy string

	// Capabilities
	CapabilityTimeout   time.Duration
	CancellationTimeout time.Duration
	Timezone            string

	// Remote capability services, keyed by intent label
	ServiceURLs map[string]string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 60)) * time.Second,

		PGHost:        getEnv("PG_HOST", "localhost"),
		PGPort:        getEnvAsInt("PG_PORT", 5432),
		PGDatabase:    getEnv("PG_DB", "airline"),
		PGUser:        getEnv("PG_USER", "postgres"),
		PGPassword:    getEnv("PG_PASSWORD", ""),
		PGSSLMode:     getEnv("PG_SSLMODE", "disable"),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),

		OracleProvider: strings.ToLower(getEnv("ORACLE_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		ModelName:      getEnv("MODEL_NAME", "gpt-4o-mini"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		Temperature:    getEnvAsFloat("TEMPERATURE", 0),

		ConversationBackend: strings.ToLower(getEnv("CONVERSATION_BACKEND", BackendMemory)),
		ConversationTTL:     getEnvAsDuration("CONVERSATION_TTL", 24*time.Hour),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "airline_assistant"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		RetrieverURL:       getEnv("RETRIEVER_URL", ""),
		RetrieverTopK:      getEnvAsInt("RETRIEVER_TOP_K", 3),
		PolicyDocsDir:      getEnv("POLICY_DOCS_DIR", "./policies"),
		CancellationPolicy: getEnv("CANCELLATION_POLICY", defaultCancellationPolicy),

		CapabilityTimeout:   getEnvAsDuration("CAPABILITY_TIMEOUT", 30*time.Second),
		CancellationTimeout: getEnvAsDuration("CANCELLATION_TIMEOUT", 15*time.Minute),
		Timezone:            getEnv("TIMEZONE", "Asia/Kolkata"),

		ServiceURLs: map[string]string{
			"reservation_query":  getEnv("RESERVATION_SERVICE_URL", ""),
			"reservation_book":   getEnv("BOOKING_SERVICE_URL", ""),
			"reservation_cancel": getEnv("CANCEL_SERVICE_URL", ""),
			"schedule_query":     getEnv("SCHEDULE_SERVICE_URL", ""),
			"policy_query":       getEnv("RAG_SERVICE_URL", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate fails fast on configuration the service cannot start without
func (c *Config) Validate() error {
	var errs []error

	switch c.OracleProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when ORACLE_PROVIDER=openai"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when ORACLE_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ORACLE_PROVIDER %q", c.OracleProvider))
	}

	switch c.ConversationBackend {
	case BackendMemory, BackendMongo, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported CONVERSATION_BACKEND %q", c.ConversationBackend))
	}

	if c.CapabilityTimeout <= 0 {
		errs = append(errs, errors.New("CAPABILITY_TIMEOUT must be positive"))
	}
	if c.RetrieverTopK <= 0 {
		errs = append(errs, errors.New("RETRIEVER_TOP_K must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves TIMEZONE. "IST" and "Asia/Kolkata" map to a fixed UTC+05:30 zone so the
// service does not depend on the host's tzdata.
func (c *Config) Location() (*time.Location, error) {
	switch strings.ToUpper(c.Timezone) {
	case "IST", "ASIA/KOLKATA", "ASIA/CALCUTTA", "":
		return time.FixedZone("IST", 5*3600+30*60), nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PostgresDSN builds the lib/pq style connection string for gorm
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PGHost, c.PGPort, c.PGUser, c.PGPassword, c.PGDatabase, c.PGSSLMode)
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

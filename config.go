package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the pipeline configuration
type Config struct {
	Database DatabaseConfig
	S3       S3Config
	Sources  SourcesConfig
	Pipeline PipelineConfig
}

// DatabaseConfig represents database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// S3Config represents S3/R2 connection settings
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
}

// SourcesConfig represents upstream API settings
type SourcesConfig struct {
	NPSBaseURL      string
	NPSAPIKey       string
	RIDBBaseURL     string
	RIDBAPIKey      string
	OverpassBaseURL string
	GISFeedsPath    string // state code -> feed URL JSON file
	NPSLinksPath    string // park link store JSON file
}

// PipelineConfig represents pacing and retry settings
type PipelineConfig struct {
	FacilityDelay    time.Duration // pause between facility detail requests
	OverpassDelay    time.Duration // pause between area queries
	RateLimitBackoff time.Duration // wait after a rate-limited response
	CacheTTL         time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig(envPath string) (*Config, error) {
	// Prefer .env.local over .env so local overrides win
	localEnvPath := strings.TrimSuffix(envPath, ".env") + ".env.local"
	if _, err := os.Stat(localEnvPath); err == nil {
		if err := godotenv.Load(localEnvPath); err != nil {
			return nil, fmt.Errorf("failed to load local env file: %w", err)
		}
	} else if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "trailcatalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", "trailcatalog"),
		},
		Sources: SourcesConfig{
			NPSBaseURL:      getEnv("NPS_BASE_URL", "https://developer.nps.gov/api/v1"),
			NPSAPIKey:       getEnv("NPS_API_KEY", ""),
			RIDBBaseURL:     getEnv("RIDB_BASE_URL", "https://ridb.recreation.gov/api/v1"),
			RIDBAPIKey:      getEnv("RIDB_API_KEY", ""),
			OverpassBaseURL: getEnv("OVERPASS_BASE_URL", "https://overpass-api.de/api/interpreter"),
			GISFeedsPath:    getEnv("GIS_FEEDS_PATH", "./data/gis_feeds.json"),
			NPSLinksPath:    getEnv("NPS_LINKS_PATH", "./data/nps_links.json"),
		},
		Pipeline: PipelineConfig{
			FacilityDelay:    getEnvDuration("FACILITY_DELAY", time.Second),
			OverpassDelay:    getEnvDuration("OVERPASS_DELAY", 2*time.Second),
			RateLimitBackoff: getEnvDuration("RATE_LIMIT_BACKOFF", 30*time.Second),
			CacheTTL:         getEnvDuration("CACHE_TTL", time.Hour),
		},
	}

	return cfg, nil
}

// RequireDatabase validates the settings needed by commands that touch the
// relational projection.
func (c *Config) RequireDatabase() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required")
	}
	return nil
}

// RequireS3 validates the settings needed to reach the object store.
func (c *Config) RequireS3() error {
	if c.S3.Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT environment variable is required")
	}
	if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY environment variables are required")
	}
	return nil
}

// RequireSourceKeys validates the API keys needed by aggregation commands.
func (c *Config) RequireSourceKeys() error {
	if c.Sources.NPSAPIKey == "" {
		return fmt.Errorf("NPS_API_KEY environment variable is required")
	}
	if c.Sources.RIDBAPIKey == "" {
		return fmt.Errorf("RIDB_API_KEY environment variable is required")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvInt gets an environment variable as integer with a default value
func getEnvInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvDuration gets an environment variable as a duration with a default value
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

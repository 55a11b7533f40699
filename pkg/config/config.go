package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	MediaProviderCloudinary = "cloudinary"
	MediaProviderGCS        = "gcs"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string
	FirebaseApiKey  string

	// Service account, either inline JSON (production) or a file path (local development).
	ServiceAccountJSON string
	ServiceAccountPath string

	MediaProvider          string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	StorageBucket          string
	MaxUploadMB            int64

	NatsURL string

	ShutdownTimeoutSeconds int64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		FirebaseProject:        getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseApiKey:         getEnv("FIREBASE_API_KEY", ""),
		ServiceAccountJSON:     getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:     getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		MediaProvider:          strings.ToLower(getEnv("MEDIA_PROVIDER", MediaProviderCloudinary)),
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", ""),
		MaxUploadMB:            getEnvAsInt64("MAX_UPLOAD_MB", 5),
		NatsURL:                getEnv("NATS_URL", ""),
		ShutdownTimeoutSeconds: getEnvAsInt64("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.FirebaseApiKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required for password sign-in")
	}

	switch c.MediaProvider {
	case MediaProviderCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryUploadPreset == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET are required for the cloudinary media provider")
		}
	case MediaProviderGCS:
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the gcs media provider")
		}
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.MediaProvider)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

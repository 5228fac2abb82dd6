package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort     string
	MongoURI     string
	MongoDB      string
	RedisAddress string
	NATSURL      string
	JWTSecret    string

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string

	// Creation batch bounds: reject oversized uploads before any
	// transcoding starts.
	MaxImagesPerListing  int
	MaxImagePayloadBytes int64
}

func Load() (*Config, error) {
	// .env is optional; environment variables are the primary source.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "property_service"),
		RedisAddress: getEnv("REDIS_ADDRESS", "localhost:6379"),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPEmail:    getEnv("SMTP_EMAIL", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MaxImagesPerListing:  getEnvInt("MAX_IMAGES_PER_LISTING", 12),
		MaxImagePayloadBytes: int64(getEnvInt("MAX_IMAGE_PAYLOAD_BYTES", 32<<20)),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("FATAL: JWT_SECRET is not set. This is required for security.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using fallback: %s", key, fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, defaulting to %d", key, value, fallback)
		return fallback
	}
	return n
}

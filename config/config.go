package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. It is loaded once at startup
// and passed to component constructors; business logic never reads the
// environment directly.
type Config struct {
	ServerAddr string

	FFmpegPath string

	// Text-suggestion provider (OpenAI-compatible chat endpoint).
	SuggestAPIURL      string
	SuggestAPIKey      string
	SuggestModel       string
	SuggestMaxAttempts int

	// Audio-synthesis provider (MusicGen-style inference endpoint).
	MusicGenAPIURL      string
	MusicGenAPIKey      string
	MusicGenMaxAttempts int

	// Object storage.
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioRegion        string
	MinioUseSSL        bool
	MinioPublicBaseURL string // base URL artifacts are served from, e.g. https://cdn.example.com

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Lower bound for the date-window project listing. RFC3339 or empty.
	ProjectsCreatedFrom string

	LogPath string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		SuggestAPIURL:      getEnv("SUGGEST_API_URL", ""),
		SuggestAPIKey:      os.Getenv("SUGGEST_API_KEY"),
		SuggestModel:       getEnv("SUGGEST_MODEL", "gpt-4o-mini"),
		SuggestMaxAttempts: getEnvInt("SUGGEST_MAX_ATTEMPTS", 4),

		MusicGenAPIURL:      getEnv("MUSICGEN_API_URL", ""),
		MusicGenAPIKey:      os.Getenv("MUSICGEN_API_KEY"),
		MusicGenMaxAttempts: getEnvInt("MUSICGEN_MAX_ATTEMPTS", 6),

		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        getEnv("MINIO_BUCKET", "musewave"),
		MinioRegion:        getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),
		MinioPublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", "http://127.0.0.1:9000"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "musewave"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ProjectsCreatedFrom: getEnv("PROJECTS_CREATED_FROM", ""),

		LogPath: getEnv("LOG_PATH", ""),
	}
}

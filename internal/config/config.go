// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultAdminToken = "admin-token-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	Admin       AdminConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

// AdminConfig holds the shared management secret. There is no per-user
// identity: anyone presenting this token is the administrator.
type AdminConfig struct {
	Token string
}

type StoreConfig struct {
	Backend  string // memory, postgres or s3
	Database DatabaseConfig
	S3       S3Config
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "postgres"),
			Database: DatabaseConfig{
				Host:         getEnv("DB_HOST", "localhost"),
				Port:         getEnv("DB_PORT", "5432"),
				User:         getEnv("DB_USER", "postgres"),
				Password:     getEnv("DB_PASSWORD", ""),
				Database:     getEnv("DB_NAME", "license_server"),
				SSLMode:      getEnv("DB_SSL_MODE", "disable"),
				MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
				MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
				MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
				LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
			},
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-1"),
				Bucket:          getEnv("S3_BUCKET", ""),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", defaultAdminToken),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Environment == "production" && c.Admin.Token == defaultAdminToken {
		return fmt.Errorf("admin token must be changed in production")
	}

	switch c.Store.Backend {
	case "memory", "postgres", "s3":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Store.Backend == "s3" && c.Store.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for the s3 store backend")
	}

	if c.Environment == "production" && c.Store.Backend == "memory" {
		return fmt.Errorf("memory store backend is not allowed in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

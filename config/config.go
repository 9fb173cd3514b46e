package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string

	// CronSecret authorizes the scheduled sweep endpoint. Any of the
	// accepted credential forms (bearer token, X-Cron-Key header, ?key=
	// query) must match it.
	CronSecret string
	// TrustPlatformHeader accepts the hosting platform's X-Scheduled-Task
	// header as sweep authorization, for platforms that strip custom auth.
	TrustPlatformHeader bool

	// ReservationTTL is how long a promoted waitlist entry holds its seat
	// before the sweep releases it.
	ReservationTTL time.Duration
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("PORT", "8082"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tur_booking"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RabbitURL: getEnv("RABBITMQ_URL", ""),

		CronSecret:          getEnv("CRON_SECRET", ""),
		TrustPlatformHeader: getEnvBool("CRON_TRUST_PLATFORM_HEADER", false),

		ReservationTTL: getEnvDuration("RESERVATION_TTL", 48*time.Hour),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	CorsAllowedOrigins []string

	// Flat per-person reservation rate in currency units.
	ReservationRatePerPerson float64

	PagoFacilBaseURL     string
	PagoFacilToken       string
	PagoFacilCallbackURL string
	PaymentCacheTTL      time.Duration

	RabbitMQURL string
}

func Load() Config {
	cfg := Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8094"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		CorsAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		ReservationRatePerPerson: getEnvFloat64("RESERVATION_RATE_PER_PERSON", 20),
		PagoFacilBaseURL:         getEnv("PAGOFACIL_BASE_URL", ""),
		PagoFacilToken:           getEnv("PAGOFACIL_TOKEN", ""),
		PagoFacilCallbackURL:     getEnv("PAGOFACIL_CALLBACK_URL", ""),
		PaymentCacheTTL:          getEnvDuration("PAYMENT_CACHE_TTL", time.Hour),
		RabbitMQURL:              getEnv("RABBITMQ_URL", ""),
	}

	if cfg.ReservationRatePerPerson <= 0 {
		cfg.ReservationRatePerPerson = 20
	}

	return cfg
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFloat64(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

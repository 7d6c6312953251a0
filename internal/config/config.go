package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port       string
	Env        string
	LogLevel   string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	CORSAllowedOrigins []string

	// DefaultBusinessID is the tenant used when a request doesn't name
	// one; single-business deployments only ever use this.
	DefaultBusinessID int64

	// BusinessName appears in email subjects and bodies.
	BusinessName string

	// BusinessTimezone is the IANA zone used for "today"/"past time" checks.
	BusinessTimezone string

	// MatchThreshold is the minimum similarity ratio (0-1) for fuzzy
	// service/keyword recognition.
	MatchThreshold float64

	// PhoneDigits is the required number of digits in a client phone
	// number after stripping separators. Spanish mobiles use 9.
	PhoneDigits int

	// RestartKeywords unconditionally reset the conversation.
	RestartKeywords []string

	// AppointmentDuration is the default slot length used for calendar
	// invites.
	AppointmentDuration time.Duration

	// MessageRatePerSecond and MessageBurst bound how fast one IP may
	// post messages; a zero rate disables limiting.
	MessageRatePerSecond float64
	MessageBurst         int

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 30*time.Minute),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		DefaultBusinessID: int64(getEnvAsInt("DEFAULT_BUSINESS_ID", 1)),
		BusinessName:      getEnv("BUSINESS_NAME", "Bookline"),
		BusinessTimezone:  getEnv("BUSINESS_TIMEZONE", "Europe/Madrid"),
		MatchThreshold:   getEnvAsFloat("MATCH_THRESHOLD", 0.6),
		PhoneDigits:      getEnvAsInt("PHONE_DIGITS", 9),
		RestartKeywords: getEnvAsList("RESTART_KEYWORDS",
			[]string{"start", "back", "menu", "reset", "inicio", "volver", "empezar"}),

		AppointmentDuration: getEnvAsDuration("APPOINTMENT_DURATION", 30*time.Minute),

		MessageRatePerSecond: getEnvAsFloat("MESSAGE_RATE_PER_SECOND", 5),
		MessageBurst:         getEnvAsInt("MESSAGE_BURST", 10),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Bookline"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming
// whitespace and dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

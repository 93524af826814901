package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Course match policies for ambiguous custom-field lookups.
const (
	CourseMatchFirst  = "first"
	CourseMatchStrict = "strict"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	LMS        LMSConfig
	Auth       AuthConfig
	Policy     PolicyConfig
	Attendance AttendanceConfig
	CORS       CORSConfig
	Log        LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LMSConfig holds the default upstream credentials and transport limits.
// Callers may override subdomain and API key per request; these are the
// fallbacks handed to the client constructor.
type LMSConfig struct {
	Subdomain string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
}

// AuthConfig configures the admin token flow guarding key management.
type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	TokenSecret       string
	TokenExpiry       time.Duration
	Issuer            string
}

// PolicyConfig exposes the documented upstream quirks as tunables.
type PolicyConfig struct {
	CourseMatch string
	StrictDates bool
}

// AttendanceConfig tunes response shaping and caller-key caching.
type AttendanceConfig struct {
	DefaultView string
	KeyCacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.LMS = LMSConfig{
		Subdomain: v.GetString("LMS_SUBDOMAIN"),
		APIKey:    v.GetString("LMS_API_KEY"),
		BaseURL:   v.GetString("LMS_BASE_URL"),
		Timeout:   parseDuration(v.GetString("LMS_TIMEOUT"), 10*time.Second),
	}

	cfg.Auth = AuthConfig{
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		TokenSecret:       v.GetString("TOKEN_SECRET"),
		TokenExpiry:       parseDuration(v.GetString("TOKEN_EXPIRATION"), 12*time.Hour),
		Issuer:            v.GetString("TOKEN_ISSUER"),
	}

	cfg.Policy = PolicyConfig{
		CourseMatch: strings.ToLower(v.GetString("POLICY_COURSE_MATCH")),
		StrictDates: v.GetBool("POLICY_STRICT_DATES"),
	}
	if cfg.Policy.CourseMatch != CourseMatchStrict {
		cfg.Policy.CourseMatch = CourseMatchFirst
	}

	cfg.Attendance = AttendanceConfig{
		DefaultView: v.GetString("ATTENDANCE_DEFAULT_VIEW"),
		KeyCacheTTL: parseDuration(v.GetString("KEY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LMS_SUBDOMAIN", "")
	v.SetDefault("LMS_API_KEY", "")
	v.SetDefault("LMS_BASE_URL", "")
	v.SetDefault("LMS_TIMEOUT", "10s")

	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("TOKEN_SECRET", "dev_secret")
	v.SetDefault("TOKEN_EXPIRATION", "12h")
	v.SetDefault("TOKEN_ISSUER", "lms-attendance-api")

	v.SetDefault("POLICY_COURSE_MATCH", CourseMatchFirst)
	v.SetDefault("POLICY_STRICT_DATES", false)

	v.SetDefault("ATTENDANCE_DEFAULT_VIEW", "basic")
	v.SetDefault("KEY_CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

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

// Session store backends for the durable token/user side channel.
const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Config struct {
	Env  string
	Port int

	Backend BackendConfig
	Session SessionConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	Shell   ShellConfig
	Exports ExportsConfig
	Health  HealthConfig
	Metrics MetricsConfig
}

// BackendConfig locates the external reporting REST service.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig governs browser session cookies and the durable store.
type SessionConfig struct {
	Secret   string
	TTL      time.Duration
	Store    string
	StateDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ShellConfig tunes application shell behaviour.
type ShellConfig struct {
	SearchDebounce time.Duration
}

// ExportsConfig controls where downloaded spreadsheets and locally rendered
// exports land.
type ExportsConfig struct {
	DownloadsDir string
}

// HealthConfig schedules the periodic backend health probe.
type HealthConfig struct {
	ProbeSpec string
	Timeout   time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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

	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Secret:   v.GetString("SESSION_SECRET"),
		TTL:      parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		Store:    v.GetString("SESSION_STORE"),
		StateDir: v.GetString("STATE_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Shell = ShellConfig{
		SearchDebounce: parseDuration(v.GetString("SEARCH_DEBOUNCE"), 500*time.Millisecond),
	}

	cfg.Exports = ExportsConfig{
		DownloadsDir: v.GetString("DOWNLOADS_DIR"),
	}

	cfg.Health = HealthConfig{
		ProbeSpec: v.GetString("HEALTH_PROBE_CRON"),
		Timeout:   parseDuration(v.GetString("HEALTH_PROBE_TIMEOUT"), 2*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("BACKEND_TIMEOUT", "15s")

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_STORE", SessionStoreFile)
	v.SetDefault("STATE_DIR", "./state")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("DOWNLOADS_DIR", "./downloads")

	v.SetDefault("HEALTH_PROBE_CRON", "@every 1m")
	v.SetDefault("HEALTH_PROBE_TIMEOUT", "2s")

	v.SetDefault("ENABLE_METRICS", true)
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

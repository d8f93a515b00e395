package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Tasks     TasksConfig
	Assistant AssistantConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	// UpstreamRPS and UpstreamBurst limit the routes that call the
	// collaborator APIs.
	UpstreamRPS   float64
	UpstreamBurst int
}

// DatasetConfig describes where the canonical accident table comes from.
type DatasetConfig struct {
	Source    string // "csv" or "postgres"
	Path      string
	Encoding  string
	Delimiter rune
	RootLabel string
	CacheTTL  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(d.Host), d.Port, dsnValue(d.User), dsnValue(d.Password), dsnValue(d.Name), dsnValue(d.SSLMode),
	)
}

// dsnValue quotes a keyword/value setting the way libpq reads it.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// GetURL returns the connection string in URL form, as pgxpool expects it.
func (d DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type AdminConfig struct {
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins string
}

type TasksConfig struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type AssistantConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	upstreamRPS, err := getFloatEnv("UPSTREAM_RATE_LIMIT_RPS", 2)
	if err != nil || upstreamRPS <= 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_LIMIT_RPS: %q", os.Getenv("UPSTREAM_RATE_LIMIT_RPS"))
	}

	upstreamBurst, err := getIntEnv("UPSTREAM_RATE_LIMIT_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_LIMIT_BURST: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisEnabled, err := getBoolEnv("REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	datasetTTL, err := getDurationEnv("DATASET_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid DATASET_CACHE_TTL: %w", err)
	}

	tasksTTL, err := getDurationEnv("TASKS_CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TASKS_CACHE_TTL: %w", err)
	}

	tasksTimeout, err := getDurationEnv("TASKS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TASKS_TIMEOUT: %w", err)
	}

	assistantTimeout, err := getDurationEnv("ASSISTANT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ASSISTANT_TIMEOUT: %w", err)
	}

	logDev, err := getBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
	}

	delimiter := getEnv("DATASET_DELIMITER", ";")
	if len([]rune(delimiter)) != 1 {
		return nil, fmt.Errorf("invalid DATASET_DELIMITER: %q must be a single character", delimiter)
	}

	source := strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV))
	if source != SourceCSV && source != SourcePostgres {
		return nil, fmt.Errorf("invalid DATASET_SOURCE: %q", source)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          serverPort,
			UpstreamRPS:   upstreamRPS,
			UpstreamBurst: upstreamBurst,
		},
		Dataset: DatasetConfig{
			Source:    source,
			Path:      getEnv("DATASET_PATH", "data/AMVA_Accidentalidad_20191022_2.csv"),
			Encoding:  getEnv("DATASET_ENCODING", "latin1"),
			Delimiter: []rune(delimiter)[0],
			RootLabel: getEnv("DATASET_ROOT_LABEL", "Medellín"),
			CacheTTL:  datasetTTL,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "accidents"),
			Password: getEnv("DB_PASSWORD", "accidents_dev_password"),
			Name:     getEnv("DB_NAME", "accidents"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Enabled:  redisEnabled,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: jwtExpiry,
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Tasks: TasksConfig{
			BaseURL:  getEnv("TASKS_API_URL", "https://690b668e6ad3beba00f4c783.mockapi.io/api/v1/tasks"),
			CacheTTL: tasksTTL,
			Timeout:  tasksTimeout,
		},
		Assistant: AssistantConfig{
			APIKey:       getEnv("GEMINI_API_KEY", ""),
			DefaultModel: getEnv("ASSISTANT_MODEL", "gemini-2.5-flash"),
			Timeout:      assistantTimeout,
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: logDev,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

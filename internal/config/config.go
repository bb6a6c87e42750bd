package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrMissingDatabaseParams = errors.New("missing database connection parameters")
	ErrUnknownRepoType       = errors.New("unknown repository type")
)

// RepoType selects the order store backend.
type RepoType string

const (
	RepoTypeMemory   RepoType = "memory"
	RepoTypePostgres RepoType = "postgres"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	NATS      NATSConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace time.Duration
}

type DatabaseConfig struct {
	RepoType RepoType
	// URL, when set, takes precedence over the individual parameters.
	URL                    string
	InstanceConnectionName string
	Host                   string
	Port                   string
	Name                   string
	User                   string
	Password               string
	SSLMode                string
	MaxConns               int
	MinConns               int
}

type NATSConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

// Enabled reports whether order events should go to NATS.
func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort           = 8080
	defaultMetricsPath        = "/metrics"
	defaultShutdownGrace      = 15
	defaultRepoType           = RepoTypeMemory
	defaultDBPort             = "5432"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 0
	defaultNATSConnectTimeout = 5 * time.Second
	defaultServiceName        = "orders-api"
	defaultServiceVersion     = "0.1.0"
	defaultEnvironment        = "development"
	defaultLogLevel           = "info"
	defaultOTelSampleRate     = 1.0

	cloudSQLSocketDir = "/cloudsql"
)

// Load reads configuration from environment variables, applying defaults when
// needed. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %w", ErrInvalidConfig, err)
	}

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := &Config{
		HTTP:     httpCfg,
		Database: dbCfg,
		NATS: NATSConfig{
			URL:            os.Getenv("NATS_URL"),
			ConnectTimeout: defaultNATSConnectTimeout,
		},
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backend has what it needs to start.
func (c *Config) Validate() error {
	switch c.Database.RepoType {
	case RepoTypeMemory:
		return nil
	case RepoTypePostgres:
		if c.Database.URL != "" {
			return nil
		}
		db := c.Database
		if db.Name == "" || db.User == "" || db.Password == "" {
			return fmt.Errorf("%w: %w: DB_NAME, DB_USER and DB_PASSWORD are required", ErrInvalidConfig, ErrMissingDatabaseParams)
		}
		if db.InstanceConnectionName == "" && db.Host == "" {
			return fmt.Errorf("%w: %w: set INSTANCE_CONNECTION_NAME or DB_HOST", ErrInvalidConfig, ErrMissingDatabaseParams)
		}
		return nil
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownRepoType, c.Database.RepoType)
	}
}

// DSN returns the pgx connection string. With an instance connection name the
// server is reached over the Cloud SQL unix socket, otherwise over TCP.
// Pool bounds are not encoded here; MaxConns and MinConns are applied to the
// pool config directly, since a plain pgx connection would forward unknown
// query keys to the server as startup parameters.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Path:   "/" + c.Name,
	}

	if c.InstanceConnectionName != "" {
		query.Set("host", cloudSQLSocketDir+"/"+c.InstanceConnectionName)
	} else {
		dsn.Host = c.Host + ":" + c.Port
	}

	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := lookupFirst("API_HTTP_PORT", "PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid HTTP port %q: %w", value, err)
		}
		port = parsed
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: time.Duration(shutdownGrace) * time.Second,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	maxConns, err := getIntEnv("DB_MAX_CONNS", defaultDBMaxConns)
	if err != nil {
		return DatabaseConfig{}, err
	}

	minConns, err := getIntEnv("DB_MIN_CONNS", defaultDBMinConns)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		RepoType:               RepoType(getEnvOrDefault("REPO_TYPE", string(defaultRepoType))),
		URL:                    os.Getenv("DATABASE_URL"),
		InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		Host:                   os.Getenv("DB_HOST"),
		Port:                   getEnvOrDefault("DB_PORT", defaultDBPort),
		Name:                   os.Getenv("DB_NAME"),
		User:                   os.Getenv("DB_USER"),
		Password:               os.Getenv("DB_PASSWORD"),
		SSLMode:                getEnvOrDefault("DB_SSLMODE", defaultDBSSLMode),
		MaxConns:               maxConns,
		MinConns:               minConns,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value := os.Getenv("OTEL_SAMPLE_RATE"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", false),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", false),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func lookupFirst(keys ...string) (string, bool) {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value, true
		}
	}
	return "", false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration constants
const (
	// API Configuration
	APIBaseURL  = "API_BASE_URL"
	WSURL       = "WS_URL"
	HTTPTimeout = "HTTP_TIMEOUT"

	// Database Configuration (optional snapshot archive)
	DBURL = "DB_URL"

	// Logging Configuration
	LogLevel  = "LOG_LEVEL"
	LogFormat = "LOG_FORMAT"

	// Redis Configuration
	RedisAddr     = "REDIS_ADDR"
	RedisPassword = "REDIS_PASSWORD"
	RedisDB       = "REDIS_DB"
	SessionKey    = "SESSION_KEY"

	// WebSocket Configuration
	WSReadBufferSize  = "WS_READ_BUFFER_SIZE"
	WSWriteBufferSize = "WS_WRITE_BUFFER_SIZE"
	WSMaxWorkers      = 4
	WSMaxCapacity     = 64

	// Watcher Configuration
	CountdownTick = "COUNTDOWN_TICK"
	WatchAuctions = "WATCH_AUCTIONS"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	WebSocket WebSocketConfig
	Watcher   WatcherConfig
}

// APIConfig holds the REST endpoint configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a snapshot archive is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionKey string
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	URL             string
	ReadBufferSize  int
	WriteBufferSize int
}

// WatcherConfig holds settings for the headless watcher
type WatcherConfig struct {
	Tick     time.Duration
	Auctions []string
}

// LoadConfig loads configuration from environment variables and .envrc file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".envrc")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file (optional, will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString(APIBaseURL), "/"),
			Timeout: v.GetDuration(HTTPTimeout),
		},
		Database: DatabaseConfig{
			URL: v.GetString(DBURL),
		},
		Redis: RedisConfig{
			Addr:       v.GetString(RedisAddr),
			Password:   v.GetString(RedisPassword),
			DB:         v.GetInt(RedisDB),
			SessionKey: v.GetString(SessionKey),
		},
		Logging: LoggingConfig{
			Level:  v.GetString(LogLevel),
			Format: v.GetString(LogFormat),
		},
		WebSocket: WebSocketConfig{
			URL:             v.GetString(WSURL),
			ReadBufferSize:  v.GetInt(WSReadBufferSize),
			WriteBufferSize: v.GetInt(WSWriteBufferSize),
		},
		Watcher: WatcherConfig{
			Tick:     v.GetDuration(CountdownTick),
			Auctions: splitList(v.GetString(WatchAuctions)),
		},
	}
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault(APIBaseURL, "http://localhost:5000/api")
	v.SetDefault(WSURL, "ws://localhost:5000/ws")
	v.SetDefault(HTTPTimeout, "15s")

	// Redis defaults
	v.SetDefault(RedisAddr, "localhost:6379")
	v.SetDefault(RedisPassword, "")
	v.SetDefault(RedisDB, 0)
	v.SetDefault(SessionKey, "aucto:auth-storage")

	// Logging defaults
	v.SetDefault(LogLevel, "info")
	v.SetDefault(LogFormat, "json")

	// WebSocket defaults
	v.SetDefault(WSReadBufferSize, 1024)
	v.SetDefault(WSWriteBufferSize, 1024)

	// Watcher defaults
	v.SetDefault(CountdownTick, "1s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}

	if c.WebSocket.URL == "" {
		return fmt.Errorf("websocket URL is required")
	}
	wsURL, err := url.Parse(c.WebSocket.URL)
	if err != nil || (wsURL.Scheme != "ws" && wsURL.Scheme != "wss") {
		return fmt.Errorf("websocket URL must use ws or wss: %q", c.WebSocket.URL)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("Redis address is required")
	}

	if c.Watcher.Tick <= 0 {
		return fmt.Errorf("countdown tick must be positive")
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

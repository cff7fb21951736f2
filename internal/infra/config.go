package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cliq_go/internal/domain"
	"cliq_go/internal/strategy"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultLLMModel      = "google/gemini-2.0-flash-lite-001"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	HTTP struct {
		Addr                string   `yaml:"addr"`
		PprofAddr           string   `yaml:"pprof_addr"`
		AllowedOrigins      []string `yaml:"allowed_origins"`
		SearchRatePerMinute int      `yaml:"search_rate_per_minute"`
		ShutdownTimeoutSec  int      `yaml:"shutdown_timeout_sec"`
	} `yaml:"http"`

	LLM struct {
		BaseURL          string  `yaml:"base_url"`
		APIKey           string  `yaml:"api_key"`
		Model            string  `yaml:"model"`
		TimeoutSec       int     `yaml:"timeout_sec"`
		Temperature      float32 `yaml:"temperature"`
		MaxTokens        int     `yaml:"max_tokens"`
		FailureThreshold uint32  `yaml:"failure_threshold"`
		OpenTimeoutSec   int     `yaml:"open_timeout_sec"`
	} `yaml:"llm"`

	Tracking struct {
		InactiveThresholdHours int                  `yaml:"inactive_threshold_hours"`
		WatchlistIntervalSec   int                  `yaml:"watchlist_interval_sec"`
		PurchaseIntervalSec    int                  `yaml:"purchase_interval_sec"`
		RecentActivityLimit    int                  `yaml:"recent_activity_limit"`
		LogCapacity            int                  `yaml:"log_capacity"`
		Drift                  strategy.DriftPolicy `yaml:"drift"`
	} `yaml:"tracking"`

	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`

	Scraper struct {
		Enabled        bool `yaml:"enabled"`
		TimeoutSec     int  `yaml:"timeout_sec"`
		MinImagePx     int  `yaml:"min_image_px"`
		MaxConcurrency int  `yaml:"max_concurrency"`
	} `yaml:"scraper"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration that runs without a config file
func DefaultConfig() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes YAML, fills defaults, applies env overrides and validates
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "Cliq"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.PprofAddr == "" {
		cfg.HTTP.PprofAddr = "localhost:6060"
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
			"https://*.vercel.app",
		}
	}
	if cfg.HTTP.SearchRatePerMinute == 0 {
		cfg.HTTP.SearchRatePerMinute = 30
	}
	if cfg.HTTP.ShutdownTimeoutSec == 0 {
		cfg.HTTP.ShutdownTimeoutSec = 10
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultOpenRouterURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.TimeoutSec == 0 {
		cfg.LLM.TimeoutSec = 30
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4000
	}
	if cfg.LLM.FailureThreshold == 0 {
		cfg.LLM.FailureThreshold = 3
	}
	if cfg.LLM.OpenTimeoutSec == 0 {
		cfg.LLM.OpenTimeoutSec = 60
	}

	if cfg.Tracking.InactiveThresholdHours == 0 {
		cfg.Tracking.InactiveThresholdHours = 24
	}
	if cfg.Tracking.WatchlistIntervalSec == 0 {
		cfg.Tracking.WatchlistIntervalSec = 5 * 60
	}
	if cfg.Tracking.PurchaseIntervalSec == 0 {
		cfg.Tracking.PurchaseIntervalSec = 30 * 60
	}
	if cfg.Tracking.RecentActivityLimit == 0 {
		cfg.Tracking.RecentActivityLimit = 20
	}
	if cfg.Tracking.LogCapacity == 0 {
		cfg.Tracking.LogCapacity = 100
	}
	if cfg.Tracking.Drift == (strategy.DriftPolicy{}) {
		cfg.Tracking.Drift = strategy.DefaultDriftPolicy()
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/cliq.db"
	}

	if cfg.Scraper.TimeoutSec == 0 {
		cfg.Scraper.TimeoutSec = 8
	}
	if cfg.Scraper.MinImagePx == 0 {
		cfg.Scraper.MinImagePx = 100
	}
	if cfg.Scraper.MaxConcurrency == 0 {
		cfg.Scraper.MaxConcurrency = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.LLM.BaseURL, "http://") && !hasPrefix(c.LLM.BaseURL, "https://") {
		return &domain.ConfigError{Field: "llm.base_url", Err: fmt.Errorf("invalid URL %q", c.LLM.BaseURL)}
	}
	if c.LLM.TimeoutSec < 0 || c.LLM.OpenTimeoutSec < 0 {
		return &domain.ConfigError{Field: "llm.timeout_sec", Err: fmt.Errorf("timeouts must not be negative")}
	}

	if c.Tracking.InactiveThresholdHours <= 0 {
		return &domain.ConfigError{Field: "tracking.inactive_threshold_hours", Err: fmt.Errorf("must be positive")}
	}
	if c.Tracking.WatchlistIntervalSec <= 0 || c.Tracking.PurchaseIntervalSec <= 0 {
		return &domain.ConfigError{Field: "tracking.interval", Err: fmt.Errorf("intervals must be positive")}
	}
	if c.Tracking.LogCapacity <= 0 || c.Tracking.RecentActivityLimit <= 0 {
		return &domain.ConfigError{Field: "tracking.log_capacity", Err: fmt.Errorf("must be positive")}
	}
	if err := c.Tracking.Drift.Validate(); err != nil {
		return &domain.ConfigError{Field: "tracking.drift", Err: err}
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return &domain.ConfigError{Field: "storage.sqlite_path", Err: fmt.Errorf("required for sqlite driver")}
		}
	default:
		return &domain.ConfigError{Field: "storage.driver", Err: fmt.Errorf("unknown driver %q", c.Storage.Driver)}
	}

	if c.Scraper.MaxConcurrency <= 0 {
		return &domain.ConfigError{Field: "scraper.max_concurrency", Err: fmt.Errorf("must be positive")}
	}
	if c.HTTP.SearchRatePerMinute < 0 {
		return &domain.ConfigError{Field: "http.search_rate_per_minute", Err: fmt.Errorf("must not be negative")}
	}

	return nil
}

// Durations used by the tracker
func (c *Config) InactiveThreshold() time.Duration {
	return time.Duration(c.Tracking.InactiveThresholdHours) * time.Hour
}

func (c *Config) WatchlistInterval() time.Duration {
	return time.Duration(c.Tracking.WatchlistIntervalSec) * time.Second
}

func (c *Config) PurchaseInterval() time.Duration {
	return time.Duration(c.Tracking.PurchaseIntervalSec) * time.Second
}

// LLMEnabled reports whether an API key is configured
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CLIQ_OPENROUTER_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if addr := os.Getenv("CLIQ_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if driver := os.Getenv("CLIQ_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if level := os.Getenv("CLIQ_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

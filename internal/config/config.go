package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	EnvPrefix  = "SALES"
	FileEnvVar = "SALES_CONFIG_FILE"
	dotEnvFile = ".env"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Catalog  CatalogConfig  `yaml:"catalog" envconfig:"CATALOG"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
	Logger   LoggerConfig   `yaml:"logger" envconfig:"LOG"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// DataConfig names the input log and every generated artifact.
type DataConfig struct {
	InputFile    string `yaml:"input_file" envconfig:"INPUT_FILE"`
	EnrichedFile string `yaml:"enriched_file" envconfig:"ENRICHED_FILE"`
	ReportFile   string `yaml:"report_file" envconfig:"REPORT_FILE"`
	ExcelFile    string `yaml:"excel_file" envconfig:"EXCEL_FILE"`
}

type AnalysisConfig struct {
	TopN         int `yaml:"top_n" envconfig:"TOP_N"`
	LowThreshold int `yaml:"low_threshold" envconfig:"LOW_THRESHOLD"`
}

type CatalogConfig struct {
	Enabled   bool          `yaml:"enabled" envconfig:"ENABLED"`
	URL       string        `yaml:"url" envconfig:"URL"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RateLimit float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	CacheTTL  time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

type ReportConfig struct {
	Currency string `yaml:"currency" envconfig:"CURRENCY"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit" envconfig:"RATE_LIMIT_ENABLED"`
	RateLimitRPS    int      `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
	AllowedOrigins  []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	TrustedProxies  []string `yaml:"trusted_proxies" envconfig:"TRUSTED_PROXIES"`
}

type TracingConfig struct {
	Exporter    string  `yaml:"exporter" envconfig:"EXPORTER"`
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Default returns the built-in configuration. Load layers the YAML file and
// the environment on top of it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			InputFile:    "data/sales_data.txt",
			EnrichedFile: "data/enriched_sales_data.txt",
			ReportFile:   "output/sales_report.txt",
		},
		Analysis: AnalysisConfig{
			TopN:         5,
			LowThreshold: 10,
		},
		Catalog: CatalogConfig{
			Enabled:   true,
			URL:       "https://dummyjson.com/products?limit=100",
			Timeout:   10 * time.Second,
			RateLimit: 2,
			CacheTTL:  10 * time.Minute,
		},
		Report: ReportConfig{
			Currency: "₹",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "sales-analytics",
			SampleRatio: 1.0,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SALES_CONFIG_FILE, then SALES_* environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	cfg := Default()

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.InputFile == "" {
		return fmt.Errorf("input file path cannot be empty")
	}

	if c.Analysis.TopN < 0 {
		return fmt.Errorf("top N cannot be negative, got %d", c.Analysis.TopN)
	}

	if c.Analysis.LowThreshold < 0 {
		return fmt.Errorf("low performer threshold cannot be negative, got %d", c.Analysis.LowThreshold)
	}

	if c.Catalog.Enabled && c.Catalog.URL == "" {
		return fmt.Errorf("catalog URL cannot be empty when the catalog is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	validExporters := []string{"none", "stdout"}
	if !slices.Contains(validExporters, c.Tracing.Exporter) {
		return fmt.Errorf("invalid trace exporter %q, must be one of: %s", c.Tracing.Exporter, strings.Join(validExporters, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSWSBaseURL      = "https://www.sws-solutions.co.uk/API-V4/TechnicalData_Query.php"
	DefaultSWSUserAgent    = "Garage Assistant/4.0"
	DefaultUKVDBaseURL     = "https://uk.api.vehicledataglobal.com/r2/lookup"
	DefaultUKVDPackageName = "VehicleDetailsWithImage"

	// MaxProviderTimeout caps a single provider call (milliseconds).
	MaxProviderTimeout = 10000
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like PROVIDERS_SWS_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment file is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or any parent up to the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Fprintf(os.Stderr, "loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills credentials from well-known variables when the file left them empty.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Providers.SWS.APIKey, "SWS_API_KEY"},
		{&cfg.Providers.SWS.Username, "SWS_USERNAME"},
		{&cfg.Providers.SWS.Password, "SWS_PASSWORD"},
		{&cfg.Providers.UKVD.APIKey, "UKVD_API_KEY"},
		{&cfg.Database.Redis.Password, "REDIS_PASSWORD"},
		{&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS"},
	}

	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.env); val != "" {
			*o.target = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vehicle-techdata-workers"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Provider defaults
	if cfg.Providers.SWS.BaseURL == "" {
		cfg.Providers.SWS.BaseURL = DefaultSWSBaseURL
	}
	if cfg.Providers.SWS.UserAgent == "" {
		cfg.Providers.SWS.UserAgent = DefaultSWSUserAgent
	}
	if cfg.Providers.SWS.Timeout == 0 {
		cfg.Providers.SWS.Timeout = MaxProviderTimeout
	}
	if cfg.Providers.UKVD.BaseURL == "" {
		cfg.Providers.UKVD.BaseURL = DefaultUKVDBaseURL
	}
	if cfg.Providers.UKVD.PackageName == "" {
		cfg.Providers.UKVD.PackageName = DefaultUKVDPackageName
	}
	if cfg.Providers.UKVD.Timeout == 0 {
		cfg.Providers.UKVD.Timeout = MaxProviderTimeout
	}

	// Engine defaults
	if cfg.TechData.AggregationTimeout == 0 {
		cfg.TechData.AggregationTimeout = 25000
	}
	if cfg.TechData.RepairDetailNodes == 0 {
		cfg.TechData.RepairDetailNodes = 5
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.TraceSampleRatio == 0 {
		cfg.Observability.TraceSampleRatio = 0.1
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields. Missing provider credentials are
// not an error here: they fail only that provider's facets at request time.
func validateConfig(cfg *Config) error {
	if err := validateEndpoint("providers.sws.base_url", cfg.Providers.SWS.BaseURL); err != nil {
		return err
	}
	if err := validateEndpoint("providers.ukvd.base_url", cfg.Providers.UKVD.BaseURL); err != nil {
		return err
	}

	if cfg.Providers.SWS.Timeout <= 0 || cfg.Providers.SWS.Timeout > MaxProviderTimeout {
		return fmt.Errorf("providers.sws.timeout must be between 1 and %d ms", MaxProviderTimeout)
	}
	if cfg.Providers.UKVD.Timeout <= 0 || cfg.Providers.UKVD.Timeout > MaxProviderTimeout {
		return fmt.Errorf("providers.ukvd.timeout must be between 1 and %d ms", MaxProviderTimeout)
	}

	if cfg.TechData.CacheTTLSeconds < 0 {
		return fmt.Errorf("techdata.cache_ttl_seconds must not be negative")
	}
	if cfg.TechData.RepairDetailNodes < 0 {
		return fmt.Errorf("techdata.repair_detail_nodes must not be negative")
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when redis is enabled")
	}

	return nil
}

func validateEndpoint(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// ValidateForWorkers checks the settings only the worker manager needs.
func (c *Config) ValidateForWorkers() error {
	if c.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	TechData      TechDataConfig          `mapstructure:"techdata"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig backs the optional provider response cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Technical data providers ---

type ProvidersConfig struct {
	SWS  SWSConfig  `mapstructure:"sws"`
	UKVD UKVDConfig `mapstructure:"ukvd"`
}

// SWSConfig configures the technical-data provider (identity, capacities, lubricants, repair times).
type SWSConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	UserAgent string `mapstructure:"user_agent"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// UKVDConfig configures the vehicle-details provider (VIN, make, model).
type UKVDConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	PackageName string `mapstructure:"package_name"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// TechDataConfig tunes the aggregation engine.
type TechDataConfig struct {
	AggregationTimeout   int  `mapstructure:"aggregation_timeout"` // milliseconds
	ExposeCapacities     bool `mapstructure:"expose_capacities"`
	IncludeRepairDetails bool `mapstructure:"include_repair_details"`
	RepairDetailNodes    int  `mapstructure:"repair_detail_nodes"`
	CacheTTLSeconds      int  `mapstructure:"cache_ttl_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName      string  `mapstructure:"service_name"`
	TracingEnabled   bool    `mapstructure:"tracing_enabled"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
}

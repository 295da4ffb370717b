package fetchtechnicalprofile

import (
	"time"

	"vehicle-techdata-workers/internal/common/config"
)

type Config struct {
	Enabled    bool
	Timeout    time.Duration
	MaxRetries int
}

// LoadConfig reads the worker section for TaskType. The job timeout is never shorter than the
// aggregation timeout so a slow provider soft-fails before the job does.
func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)

	timeout := config.GetDuration(wc.Timeout)
	if agg := config.GetDuration(appCfg.TechData.AggregationTimeout); agg > 0 && timeout < agg {
		timeout = agg + time.Second
	}

	return &Config{
		Enabled:    wc.Enabled,
		Timeout:    timeout,
		MaxRetries: wc.MaxRetries,
	}
}

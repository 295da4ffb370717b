package fetchrepairnodes

import (
	"time"

	"vehicle-techdata-workers/internal/common/config"
)

type Config struct {
	Enabled    bool
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Enabled:    wc.Enabled,
		Timeout:    config.GetDuration(wc.Timeout),
		MaxRetries: wc.MaxRetries,
	}
}

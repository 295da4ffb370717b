package aggregator

import (
	"time"

	"vehicle-techdata-workers/internal/common/cache"
	"vehicle-techdata-workers/internal/common/config"
	httpclient "vehicle-techdata-workers/internal/common/http"
	"vehicle-techdata-workers/internal/common/logger"
	"vehicle-techdata-workers/internal/techdata/provider"
	"vehicle-techdata-workers/internal/techdata/sws"
	"vehicle-techdata-workers/internal/techdata/ukvd"

	"github.com/redis/go-redis/v9"
)

// NewEngineFromConfig wires both provider clients from cfg. rdb and rec may be nil; with rdb
// set and a positive cache TTL, provider responses are cached in Redis.
func NewEngineFromConfig(cfg *config.Config, rdb *redis.Client, rec Recorder, log logger.Logger) *Engine {
	ukvdCfg := cfg.Providers.UKVD
	ukvdTransport := wrapCache(httpclient.NewClientWithOptions(httpclient.Options{
		Timeout: config.GetDuration(ukvdCfg.Timeout),
	}), cfg, rdb, log)

	// A client without an API key reports PROVIDER_NOT_CONFIGURED for its own facets only.
	deps := Deps{
		TechData:       NewSWSClientFromConfig(cfg, rdb, log),
		VehicleDetails: ukvd.NewClient(ukvdCfg, ukvdTransport, log),
		Recorder:       rec,
		Logger:         log,
	}

	return NewEngine(deps, OptionsFromConfig(cfg.TechData))
}

// NewSWSClientFromConfig builds the technical-data client on its own, for callers that browse
// repair nodes without aggregating a profile.
func NewSWSClientFromConfig(cfg *config.Config, rdb *redis.Client, log logger.Logger) *sws.Client {
	swsCfg := cfg.Providers.SWS
	transport := wrapCache(httpclient.NewClientWithOptions(httpclient.Options{
		Timeout:   config.GetDuration(swsCfg.Timeout),
		UserAgent: swsCfg.UserAgent,
		Username:  swsCfg.Username,
		Password:  swsCfg.Password,
	}), cfg, rdb, log)
	return sws.NewClient(swsCfg, transport, log)
}

// OptionsFromConfig converts the techdata config section.
func OptionsFromConfig(td config.TechDataConfig) Options {
	return Options{
		AggregationTimeout:   config.GetDuration(td.AggregationTimeout),
		ExposeCapacities:     td.ExposeCapacities,
		IncludeRepairDetails: td.IncludeRepairDetails,
		RepairDetailNodes:    td.RepairDetailNodes,
	}
}

func wrapCache(next provider.Transport, cfg *config.Config, rdb *redis.Client, log logger.Logger) provider.Transport {
	if rdb == nil || cfg.TechData.CacheTTLSeconds <= 0 {
		return next
	}
	ttl := time.Duration(cfg.TechData.CacheTTLSeconds) * time.Second
	return cache.NewResponseCache(rdb, next, ttl, log)
}

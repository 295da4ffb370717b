// cmd/tools/profile-lookup/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"vehicle-techdata-workers/internal/common/config"
	"vehicle-techdata-workers/internal/common/logger"
	"vehicle-techdata-workers/internal/techdata/aggregator"
)

func main() {
	plates := flag.String("plates", "", "Comma-separated registrations (e.g., YM14NFL,LN64XFG)")
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml lookup)")
	pretty := flag.Bool("pretty", false, "Indent the JSON output")
	flag.Parse()

	regs := splitPlates(*plates)
	if len(regs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -plates is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, "console", "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	engine := aggregator.NewEngineFromConfig(cfg, nil, nil, log)

	if failed := run(context.Background(), engine, regs, os.Stdout, *pretty, log); failed > 0 {
		os.Exit(2)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func splitPlates(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// run writes one JSON document per plate and returns how many lookups failed outright.
func run(ctx context.Context, engine *aggregator.Engine, regs []string, out io.Writer, pretty bool, log logger.Logger) int {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}

	failed := 0
	for _, reg := range regs {
		profile, err := engine.GetTechnicalProfile(ctx, reg)
		if err != nil {
			failed++
			log.Error("profile lookup failed", map[string]interface{}{
				"registration": reg,
				"error":        err.Error(),
			})
			continue
		}
		if err := enc.Encode(profile); err != nil {
			failed++
			log.Error("failed to write profile", map[string]interface{}{"vrm": profile.VRM, "error": err.Error()})
		}
	}
	return failed
}

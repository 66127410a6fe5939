package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/milk9111/propsim/config"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/scene"
	"github.com/spf13/cobra"
)

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("scene-dir"); v != "" {
		cfg.SceneDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, cfg.Validate()
}

func parseLevel(s string) (slog.Level, error) {
	return config.ParseLevel(s)
}

func sourceFor(cfg config.Config) scene.Source {
	return scene.Source{Dir: cfg.SceneDir}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStateLog builds the configured sink. The memory sink needs no extra
// log since the engine keeps recent states itself.
func openStateLog(cfg config.Config) (objstate.Log, io.Closer, error) {
	switch cfg.StateLog {
	case config.StateLogMemory:
		return nil, nopCloser{}, nil
	case config.StateLogJSONL:
		l, err := objstate.OpenFileLog(cfg.StateLogPath)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	case config.StateLogSQLite:
		path := cfg.StateLogPath
		if ext := filepath.Ext(path); ext == ".jsonl" {
			path = strings.TrimSuffix(path, ext) + ".db"
		}
		l, err := objstate.OpenSQLiteLog(path)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	case config.StateLogRedis:
		l := objstate.NewRedisLog(cfg.RedisAddr, objstate.WithRedisKey(cfg.RedisKey))
		return l, l, nil
	}
	return nil, nil, fmt.Errorf("unknown state log %q", cfg.StateLog)
}

type activation struct {
	Switch string
	Tick   int
}

// parseActivation reads "name@tick". A bare name fires on tick 0.
func parseActivation(s string) (activation, error) {
	name, at, found := strings.Cut(strings.TrimSpace(s), "@")
	if name == "" {
		return activation{}, fmt.Errorf("activation %q: switch name is required", s)
	}
	if !found {
		return activation{Switch: name}, nil
	}
	tick, err := strconv.Atoi(at)
	if err != nil || tick < 0 {
		return activation{}, fmt.Errorf("activation %q: tick must be a non-negative integer", s)
	}
	return activation{Switch: name, Tick: tick}, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/milk9111/propsim/config"
	"github.com/milk9111/propsim/engine"
	"github.com/milk9111/propsim/httpapi"
	"github.com/milk9111/propsim/logging"
	"github.com/milk9111/propsim/metrics"
	"github.com/milk9111/propsim/scene"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a scene and tick it",
	Long: `Loads a scene and ticks it. With --ticks the scene runs that many fixed steps as fast as
possible and prints the final object states as JSON. Without it the scene runs in real time until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runScene(ctx, cmd, cfg, opts)
	},
}

type runOptions struct {
	Scene       string
	Ticks       int
	Activations []activation
	Watch       bool
}

func init() {
	runCmd.Flags().String("scene", "kitchen", "Scene to load")
	runCmd.Flags().Int("ticks", 0, "Run this many ticks then exit (0 runs until interrupted)")
	runCmd.Flags().StringArray("activate", nil, "Activate a switch at a tick, as name@tick (repeatable)")
	runCmd.Flags().Bool("watch", false, "Reload the scene when its files change")
	runCmd.Flags().String("http", "", "Serve the debug API on this address (default $PROPSIM_HTTP_ADDR)")
	runCmd.Flags().Float64("tick-rate", 0, "Ticks per second (default $PROPSIM_TICK_RATE)")
	runCmd.Flags().String("state-log", "", "State log sink: memory, jsonl, redis or sqlite (default $PROPSIM_STATE_LOG)")
	rootCmd.AddCommand(runCmd)
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	var opts runOptions
	opts.Scene, _ = flags.GetString("scene")
	opts.Ticks, _ = flags.GetInt("ticks")
	opts.Watch, _ = flags.GetBool("watch")
	raw, _ := flags.GetStringArray("activate")
	for _, r := range raw {
		a, err := parseActivation(r)
		if err != nil {
			return runOptions{}, err
		}
		opts.Activations = append(opts.Activations, a)
	}
	if opts.Ticks < 0 {
		return runOptions{}, fmt.Errorf("--ticks must not be negative")
	}
	return opts, nil
}

func runScene(ctx context.Context, cmd *cobra.Command, cfg config.Config, opts runOptions) error {
	flags := cmd.Flags()
	if v, _ := flags.GetString("http"); v != "" {
		cfg.HTTPAddr = v
	}
	if v, _ := flags.GetFloat64("tick-rate"); v > 0 {
		cfg.TickRate = v
	}
	if v, _ := flags.GetString("state-log"); v != "" {
		cfg.StateLog = config.StateLogKind(v)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := parseLevel(cfg.LogLevel)
	logger := logging.New(level)
	slog.SetDefault(logger)

	stateLog, closer, err := openStateLog(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	src := sourceFor(cfg)
	eng := engine.New(engine.Options{
		TickRate: cfg.TickRate,
		Logger:   logger,
		Source:   src,
		StateLog: stateLog,
		Metrics:  m,
	})
	if err := eng.LoadScene(opts.Scene); err != nil {
		if eng.SceneName() == "" {
			return err
		}
		logger.Warn("scene loaded with configuration errors", "scene", opts.Scene, "err", err)
	}
	for _, a := range opts.Activations {
		eng.Schedule(a.Switch, a.Tick)
	}

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewHandler(eng, reg, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("debug api listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("debug api failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if opts.Watch {
		stopWatch, err := watchScenes(ctx, cfg, eng, logger)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	if opts.Ticks > 0 {
		for i := 0; i < opts.Ticks; i++ {
			if ctx.Err() != nil {
				break
			}
			eng.Tick()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(eng.Objects())
	}
	return eng.Run(ctx)
}

func watchScenes(ctx context.Context, cfg config.Config, eng *engine.Engine, logger *slog.Logger) (func(), error) {
	dirs := []string{cfg.SceneDir}
	if info, err := os.Stat(filepath.Join(cfg.SceneDir, "scripts")); err == nil && info.IsDir() {
		dirs = append(dirs, filepath.Join(cfg.SceneDir, "scripts"))
	}
	w, err := scene.NewWatcher(dirs...)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.SceneDir, err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				logger.Info("scene file changed, reloading", "file", name)
				if err := eng.Reload(); err != nil {
					logger.Warn("scene reload reported errors", "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("scene watcher error", "err", err)
			}
		}
	}()
	return func() { _ = w.Close() }, nil
}

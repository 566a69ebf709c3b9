// Command voxscore runs the vocal performance scoring engine.
//
// Usage:
//
//	voxscore run  -config voxscore.yaml    score from the microphone
//	voxscore demo -config voxscore.yaml    score a built-in synthetic take
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxscore/voxscore/internal/app"
	"github.com/voxscore/voxscore/internal/config"
	"github.com/voxscore/voxscore/internal/observe"
	"github.com/voxscore/voxscore/internal/score"
)

// version is stamped by the build via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	mode := "run"
	args := os.Args[1:]
	if len(args) > 0 && !flagLike(args[0]) {
		mode, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("voxscore", flag.ExitOnError)
	configPath := fs.String("config", "voxscore.yaml", "path to the YAML configuration file")
	_ = fs.Parse(args)

	if mode != "run" && mode != "demo" {
		fmt.Fprintf(os.Stderr, "voxscore: unknown mode %q (want run or demo)\n", mode)
		return 2
	}

	cfg, err := loadConfig(*configPath, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxscore: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxscore starting",
		"version", version,
		"mode", mode,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"device", cfg.Audio.Device,
		"store", cfg.Store.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxscore",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	var opts []app.Option
	done := make(chan score.Snapshot, 1)
	if mode == "demo" {
		opts = append(opts, app.WithListener(func(snap score.Snapshot, final bool) {
			if final {
				select {
				case done <- snap:
				default:
				}
				return
			}
			fmt.Printf("\rpitch %3d  timing %3d  total %3d", snap.PitchAccuracy, snap.Timing, snap.Total)
		}))
	}

	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// Hot-reload: new analysis tuning applies to the next session.
	watcher, err := config.NewWatcher(*configPath, func(_, new *config.Config) {
		application.ApplyConfig(new)
	})
	if err != nil {
		slog.Warn("config hot-reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	if mode == "demo" {
		// End the process once the synthetic take has been scored.
		go func() {
			snap := <-done
			fmt.Printf("\nfinal score: pitch %d, timing %d, total %d\n",
				snap.PitchAccuracy, snap.Timing, snap.Total)
			stop()
		}()
	}

	slog.Info("ready — press Ctrl+C to stop")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadConfig reads the config file; in demo mode a missing file falls back
// to defaults with the synth device so the demo works out of the box.
func loadConfig(path, mode string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		if mode == "demo" {
			cfg.Audio.Device = config.DeviceSynth
		}
		return cfg, nil
	}
	if mode == "demo" && errors.Is(err, os.ErrNotExist) {
		cfg, derr := config.LoadFromReader(strings.NewReader(""))
		if derr != nil {
			return nil, derr
		}
		cfg.Audio.Device = config.DeviceSynth
		cfg.Store.Backend = config.StoreMemory
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found — copy configs/example.yaml to get started", path)
	}
	return nil, err
}

func flagLike(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

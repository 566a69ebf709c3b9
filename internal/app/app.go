// Package app wires the Voxscore subsystems into a running service: the
// score store, the audio device, the session controller, and the HTTP
// surface (health, status, session control, metrics).
//
// For testing, inject doubles via functional options (WithDevice,
// WithStore). When an option is not provided, New creates the real
// implementation selected by the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxscore/voxscore/internal/config"
	"github.com/voxscore/voxscore/internal/dsp"
	"github.com/voxscore/voxscore/internal/health"
	"github.com/voxscore/voxscore/internal/session"
	"github.com/voxscore/voxscore/internal/store"
	"github.com/voxscore/voxscore/pkg/audio"
	"github.com/voxscore/voxscore/pkg/audio/portaudio"
	"github.com/voxscore/voxscore/pkg/audio/synth"
)

const (
	shutdownTimeout = 15 * time.Second

	readHeaderTimeout = 5 * time.Second
)

// App owns all subsystem lifetimes.
type App struct {
	cfg        *config.Config
	device     audio.Device
	store      store.Store
	controller *session.Controller
	server     *http.Server
	listener   session.Listener

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithDevice injects an audio device instead of creating one from config.
func WithDevice(d audio.Device) Option {
	return func(a *App) { a.device = d }
}

// WithStore injects a score store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithListener registers a snapshot listener on the session controller.
func WithListener(fn session.Listener) Option {
	return func(a *App) { a.listener = fn }
}

// New creates an App by wiring all subsystems together.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.store == nil {
		st, err := buildStore(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("app: init store: %w", err)
		}
		a.store = st
	}
	a.closers = append(a.closers, a.store.Close)

	if a.device == nil {
		a.device = buildDevice(cfg.Audio)
	}

	ctrlOpts := append(sessionOptions(cfg), session.WithListener(a.listener))
	a.controller = session.New(a.device, a.store, ctrlOpts...)

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return a, nil
}

// Controller exposes the session controller, e.g. for the demo mode.
func (a *App) Controller() *session.Controller { return a.controller }

// ApplyConfig picks up reloaded analysis and segmentation tuning. The new
// settings apply from the next session; a recording session is not touched.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.controller.Reconfigure(sessionOptions(cfg)...)
	slog.Info("analysis tuning updated, applies to the next session")
}

// Run starts the HTTP server and the first scoring session, then blocks
// until ctx is cancelled or the server fails. A failed session start is not
// fatal: the service stays up so /status can report the error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutCtx)
	})

	if err := a.controller.Start(gctx); err != nil {
		slog.Error("could not start scoring session, waiting for /session/start", "err", err)
	}

	return g.Wait()
}

// Shutdown stops the current session, the HTTP server, and all subsystems
// in order. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down")
		var errs []error

		if err := a.controller.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: http shutdown: %w", err))
		}
		for _, closer := range a.closers {
			if err := closer(); err != nil {
				slog.Warn("closer error", "err", err)
			}
		}

		shutdownErr = errors.Join(errs...)
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// routes builds the HTTP surface.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz())
	mux.HandleFunc("GET /readyz", health.Readyz(map[string]health.Checker{
		"store": func(ctx context.Context) error {
			_, _, err := a.store.Load(ctx)
			return err
		},
	}))
	mux.HandleFunc("GET /status", health.Status(a.controller.Status))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /session/start", func(w http.ResponseWriter, r *http.Request) {
		if err := a.controller.Start(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("POST /session/stop", func(w http.ResponseWriter, r *http.Request) {
		if err := a.controller.Stop(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	return mux
}

// sessionOptions converts config tuning into controller options.
func sessionOptions(cfg *config.Config) []session.Option {
	estOpts := []dsp.EstimatorOption{
		dsp.WithVoiceBand(cfg.Analysis.MinPitchHz, cfg.Analysis.MaxPitchHz),
	}
	if cfg.Analysis.NoiseFloor > 0 {
		estOpts = append(estOpts, dsp.WithNoiseFloor(cfg.Analysis.NoiseFloor))
	}
	return []session.Option{
		session.WithEstimator(dsp.NewEstimator(estOpts...)),
		session.WithSegmentation(cfg.Score.SilenceRunFrames, cfg.Score.MinSegmentFrames),
	}
}

// buildStore creates the configured store backend. With local_fallback set,
// the postgres backend is chained in front of the on-device SQLite file so
// the machine keeps scoring when the venue database is unreachable.
func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return store.NewMemory(), nil
	case config.StoreSQLite:
		return store.NewSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		pg, err := store.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if !cfg.LocalFallback {
			return pg, nil
		}
		local, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		return store.NewFallback(pg, local, slog.Default()), nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Backend)
	}
}

// buildDevice creates the configured audio device. The synth device plays
// [synth.DemoProgram], a fixed melody-and-pauses script used by the demo
// mode and smoke tests.
func buildDevice(cfg config.AudioConfig) audio.Device {
	if cfg.Device == config.DeviceSynth {
		return synth.New(synth.DemoProgram(),
			synth.WithSampleRate(cfg.SampleRate),
			synth.WithFrameSize(cfg.FrameSize),
		)
	}
	return portaudio.New(
		portaudio.WithSampleRate(cfg.SampleRate),
		portaudio.WithFrameSize(cfg.FrameSize),
	)
}

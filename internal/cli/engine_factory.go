package cli

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/aretw0/autopilot"
	"github.com/aretw0/autopilot/internal/adapters/browser"
	"github.com/aretw0/autopilot/internal/adapters/desktop"
	"github.com/aretw0/autopilot/internal/adapters/file"
	"github.com/aretw0/autopilot/internal/adapters/redis"
	"github.com/aretw0/autopilot/internal/adapters/ws"
	"github.com/aretw0/autopilot/internal/condition"
	"github.com/aretw0/autopilot/internal/config"
	"github.com/aretw0/autopilot/pkg/adapters/dryrun"
	"github.com/aretw0/autopilot/pkg/adapters/memory"
	"github.com/aretw0/autopilot/pkg/adapters/process"
	"github.com/aretw0/autopilot/pkg/observability"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is the wired application: the engine and the adapters it runs on.
type Stack struct {
	Config   config.Config
	Engine   *autopilot.Engine
	Store    ports.TaskStore
	Hub      *ws.Hub
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Build wires the store, backend, event hub and metrics selected by cfg into an engine.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{
		Config:   cfg,
		Hub:      ws.NewHub(ws.WithLogger(logger)),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}

	store, locker, err := s.openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	s.Store = store

	backend, err := s.openBackend(ctx, cfg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	metrics := observability.NewMetrics(s.Registry)
	hooks := metrics.Hooks().Merge(s.Hub.Hooks())
	if logger.Enabled(ctx, slog.LevelDebug) {
		hooks = hooks.Merge(createDebugHooks(logger))
	}

	opts := []autopilot.Option{
		autopilot.WithLogger(logger),
		autopilot.WithLifecycleHooks(hooks),
		autopilot.WithOverlay(s.Hub),
		autopilot.WithReporter(s.Hub),
		autopilot.WithGuardTiming(cfg.Guard.Window, cfg.Guard.Interval, cfg.Guard.Backoff),
	}
	if locker != nil {
		opts = append(opts, autopilot.WithRunLocker(locker, cfg.Store.Redis.LockTTL))
	}
	s.Engine = autopilot.New(store, backend, opts...)
	s.closers = append([]func() error{s.Engine.Close}, s.closers...)
	return s, nil
}

// Close releases the engine, the backend and the store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Stack) openStore(ctx context.Context, cfg config.StoreConfig) (ports.TaskStore, ports.RunLocker, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		s.closers = append(s.closers, store.Close)
		var locker ports.RunLocker
		if cfg.Redis.Lock {
			locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		}
		return store, locker, nil
	default:
		return file.New(cfg.Path), nil, nil
	}
}

func (s *Stack) openBackend(ctx context.Context, cfg config.Config) (ports.Backend, error) {
	logger := s.Logger
	switch cfg.Backend.Driver {
	case config.BackendDesktop:
		commands, err := process.LoadCommands(cfg.Backend.Commands)
		if err != nil {
			return nil, err
		}
		runner := desktop.DefaultRunner(process.WithRegistry(commands))
		if err := desktop.CheckTools(runner); err != nil {
			return nil, err
		}
		return desktop.New(runner, cfg.Capture.ContrastThreshold,
			desktop.WithLogger(logger),
			desktop.WithInputDevice(cfg.Backend.InputDevice),
		), nil
	case config.BackendBrowser:
		b, err := browser.New(ctx, browser.Config{URL: cfg.Backend.URL, Headless: cfg.Backend.Headless},
			browser.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.closers = append(s.closers, b.Close)
		return b, nil
	default:
		samples, err := dryRunSamples(cfg.Backend.DryRun)
		if err != nil {
			return nil, err
		}
		return dryrun.New(logger, samples), nil
	}
}

func dryRunSamples(cfg config.DryRunConfig) (dryrun.Samples, error) {
	parse := func(s string) (color.RGBA, error) {
		if s == "" {
			return color.RGBA{}, nil
		}
		c, ok := condition.ParseHex(s)
		if !ok {
			return color.RGBA{}, fmt.Errorf("dry-run color %q is not #RRGGBB", s)
		}
		return c, nil
	}

	samples := dryrun.Samples{Text: cfg.Text, RegionText: cfg.RegionText}
	var err error
	if samples.Color, err = parse(cfg.Color); err != nil {
		return samples, err
	}
	if len(cfg.RegionColor) > 0 {
		samples.RegionColor = make(map[string]color.RGBA, len(cfg.RegionColor))
		for region, hex := range cfg.RegionColor {
			if samples.RegionColor[region], err = parse(hex); err != nil {
				return samples, err
			}
		}
	}
	return samples, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/do"

	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/config"
	"github.com/san-kum/leaklab/internal/experiment"
	"github.com/san-kum/leaklab/internal/logging"
	"github.com/san-kum/leaklab/internal/server"
)

// loadConfig applies, in order: defaults or the config file, the preset, the
// log flags and the credential from the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if preset != "" && !cfg.ApplyPreset(preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(sortedPresets(), ", "))
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.LoadEnv(envFile)
	return cfg, nil
}

// setup loads the config, starts logging and returns the injector. quiet
// keeps logs off the terminal. Scripted runs pass a manual clock so they
// play out in simulated time.
func setup(ctx context.Context, quiet bool, clk clock.Clock) (*do.Injector, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	closer, err := logging.Init(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Quiet: quiet})
	if err != nil {
		return nil, err
	}

	di := do.New()
	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)
	do.ProvideValue[io.Closer](di, closer)
	do.ProvideValue[clock.Clock](di, clk)

	do.Provide(di, newGateway)
	do.Provide(di, newSession)
	do.Provide(di, newServer)

	slog.Debug("Configuration loaded", "integrator", cfg.Integrator, "resistance", cfg.Circuit.Resistance, "provider", cfg.Assistant.Provider)
	return di, nil
}

func shutdown(di *do.Injector) {
	closer := do.MustInvoke[io.Closer](di)
	if err := di.Shutdown(); err != nil {
		slog.Debug("Injector shutdown", "error", err)
	}
	_ = closer.Close()
}

func newGateway(di *do.Injector) (assistant.Gateway, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)
	return assistant.New(ctx, cfg.Assistant)
}

func newSession(di *do.Injector) (*experiment.Session, error) {
	return experiment.New(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[assistant.Gateway](di),
		do.MustInvoke[clock.Clock](di),
	)
}

func newServer(di *do.Injector) (*server.Server, error) {
	return server.New(do.MustInvoke[*experiment.Session](di)), nil
}

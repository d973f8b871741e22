package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/aurafrog/aura-frog/internal/config"
	"github.com/aurafrog/aura-frog/internal/learning"
	"github.com/aurafrog/aura-frog/internal/logging"
	"github.com/aurafrog/aura-frog/internal/metrics"
	"github.com/aurafrog/aura-frog/internal/secrets"
	"github.com/aurafrog/aura-frog/internal/store"
	"github.com/aurafrog/aura-frog/internal/telemetry"
)

const shutdownTimeout = 2 * time.Second

// app holds the dependencies shared by every subcommand.
type app struct {
	out        io.Writer
	projectDir string

	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	metrics   *metrics.Metrics
	store     learning.Store
}

func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving project dir: %w", err)
		}
		a.projectDir = wd
	}

	cfg, err := config.Load(a.projectDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !filepath.IsAbs(cfg.Storage.Dir) {
		cfg.Storage.Dir = filepath.Join(a.projectDir, cfg.Storage.Dir)
	}
	a.cfg = cfg

	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.ServiceVersion = version
	if cfg.Telemetry.Endpoint != "" {
		telCfg.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.Protocol != "" {
		telCfg.Protocol = cfg.Telemetry.Protocol
	}
	telCfg.Insecure = cfg.Telemetry.Insecure
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("creating telemetry: %w", err)
	}
	a.telemetry = tel

	logCfg, err := logging.ConfigFrom(cfg.Logging.Level, cfg.Logging.Format, cfg.Telemetry.Enabled)
	if err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger
	if ok, reason := tel.Health(); !ok {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	a.metrics = metrics.New()
	a.store = store.New(cfg, logger.Underlying(), a.metrics)
	logger.Debug(ctx, "hook initialized",
		zap.String("project_dir", a.projectDir),
		zap.String("mode", string(a.store.Mode())))
	return nil
}

// close writes the metrics textfile, flushes spans and log records and syncs
// the logger.
// Failures are logged only.
func (a *app) close(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.logger == nil {
		_ = a.telemetry.Shutdown(ctx)
		return
	}
	if a.metrics != nil && a.cfg.MetricsEnabled() && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn(ctx, "failed to write metrics", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// scrubber returns the gitleaks scrubber with the project allowlist, or a
// no-op scrubber when it cannot be built.
func (a *app) scrubber(ctx context.Context) secrets.Scrubber {
	allowlist, err := secrets.LoadAllowlist(a.projectDir)
	if err != nil {
		a.logger.Warn(ctx, "ignoring invalid secrets allowlist", zap.Error(err))
		allowlist = nil
	}
	s, err := secrets.New(allowlist)
	if err != nil {
		a.logger.Warn(ctx, "secret scrubbing unavailable", zap.Error(err))
		return secrets.NoopScrubber{}
	}
	return s
}

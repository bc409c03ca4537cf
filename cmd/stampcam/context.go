package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vbonduro/stampcam/internal/config"
	"github.com/vbonduro/stampcam/internal/db"
	"github.com/vbonduro/stampcam/internal/export"
	"github.com/vbonduro/stampcam/internal/lock"
	"github.com/vbonduro/stampcam/internal/logging"
	"github.com/vbonduro/stampcam/internal/metrics"
	"github.com/vbonduro/stampcam/internal/photostore/local"
	"github.com/vbonduro/stampcam/internal/quota"
	"github.com/vbonduro/stampcam/internal/service"
	"github.com/vbonduro/stampcam/internal/store"
)

const configEnv = "STAMPCAM_CONFIG"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = os.Getenv(configEnv)
		}
		c.config, c.configErr = config.LoadFile(path)
	})
	return c.config, c.configErr
}

// app is one opened data directory: locked, migrated and wired.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	service *service.SurveyService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// withApp opens the data directory for the duration of fn.
func (c *commandContext) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (c *commandContext) openApp(ctx context.Context) (_ *app, err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	lk, err := lock.Acquire(cfg.LockPath)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, fmt.Errorf("%w; stop the other process or pick another data_dir", err)
		}
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = lk.Release() })

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, cleanup)
	logger.Debug("data directory locked", "lock", lk.Path(), "db", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	})

	photos, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	devices := store.NewDeviceStore(database)
	shots := store.NewShotStore(database)
	a.metrics = metrics.New()
	exporter := export.New(devices, shots, photos, export.Options{
		CompressionLevel: cfg.Export.CompressionLevel,
		StrictSanitize:   cfg.Export.StrictSanitize,
		Location:         loc,
	}, logger)

	a.service, err = service.NewSurveyService(ctx, service.Deps{
		Rooms:    store.NewRoomStore(database),
		Devices:  devices,
		Shots:    shots,
		Meta:     store.NewMetaStore(database),
		Photos:   photos,
		Exporter: exporter,
		Quota:    quota.NewReporter(cfg.PhotoPath),
		Metrics:  a.metrics,
		Capture:  cfg.Capture,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/adapters/catalog"
	"github.com/xvierd/zenpath/internal/adapters/media"
	"github.com/xvierd/zenpath/internal/adapters/notification"
	"github.com/xvierd/zenpath/internal/config"
	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/logger"
	"github.com/xvierd/zenpath/internal/ports"
	"github.com/xvierd/zenpath/internal/services"
)

// bellRingTimeout bounds one bell chime.
const bellRingTimeout = 10 * time.Second

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	configPath string
	config     *config.Config
	logger     *zap.Logger
	catalog    domain.Catalog
	captions   ports.CaptionSource
	backend    ports.MediaBackend
	machine    *services.SessionMachine
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and startSession().
var app appDeps

// initializeServices loads the configuration, the logger and the catalog.
func initializeServices(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagOverrides(cfg); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:      logger.Level(cfg.Log.Level),
		OutputPath: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracks, err := catalog.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	app = appDeps{
		configPath: path,
		config:     cfg,
		logger:     log,
		catalog:    tracks,
		captions:   catalog.CaptionFiles{BaseDir: cfg.Media.AssetDir},
	}
	log.Debug("services initialized",
		zap.String("config", path),
		zap.Int("tracks", tracks.Len()),
		zap.String("backend", cfg.Media.Backend),
	)
	return nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return config.ExpandHome(configPath)
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}

// applyFlagOverrides applies global flags on top of the loaded config.
func applyFlagOverrides(cfg *config.Config) error {
	if catalogPath != "" {
		p, err := config.ExpandHome(catalogPath)
		if err != nil {
			return err
		}
		cfg.Catalog.Path = p
	}
	if backendFlag != "" {
		cfg.Media.Backend = backendFlag
	}
	if logLevel != "" {
		if _, err := logger.ParseLevel(logger.Level(logLevel)); err != nil {
			return err
		}
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// startSession builds the media backend, the bell and the session machine.
func startSession() error {
	cfg := app.config
	log := app.logger
	scheduler := services.NewSystemScheduler()

	backendName := cfg.Media.Backend
	if backendName == config.BackendFFPlay && !media.Available(cfg.Media.FFPlayPath) {
		log.Warn("ffplay not found, using simulated playback", zap.String("ffplay_path", cfg.Media.FFPlayPath))
		backendName = config.BackendSimulated
	}

	var chime ports.Chime
	switch backendName {
	case config.BackendSimulated:
		app.backend = media.NewSimulatedBackend(scheduler, app.catalog, int(time.Duration(cfg.Playback.FallbackDuration)/time.Second))
	default:
		app.backend = media.NewFFPlayBackend(media.FFPlayOptions{
			FFPlayPath:       cfg.Media.FFPlayPath,
			FFProbePath:      cfg.Media.FFProbePath,
			AssetDir:         cfg.Media.AssetDir,
			PositionInterval: time.Duration(cfg.Media.PositionInterval),
			Scheduler:        scheduler,
			Logger:           log,
		})
		chime = media.FFPlayChime{
			FFPlayPath: cfg.Media.FFPlayPath,
			Asset:      media.ResolveAsset(cfg.Media.AssetDir, cfg.Bell.Asset),
		}
	}

	notifier := notification.New(&cfg.Bell)
	bell := services.NewBellTrigger(chime, notifier, notifier, services.BellOptions{
		Enabled:       cfg.Bell.Enabled,
		ToneFrequency: cfg.Bell.ToneFrequency,
		ToneDuration:  time.Duration(cfg.Bell.ToneDuration),
		RingTimeout:   bellRingTimeout,
		Desktop:       cfg.Bell.Desktop,
	}, log)

	app.machine = services.NewSessionMachine(app.catalog, app.backend, scheduler, bell, log, services.MachineOptions{
		HandoffDelay:            time.Duration(cfg.Playback.HandoffDelay),
		CancelHandoffOnNavigate: cfg.Playback.CancelHandoffOnNavigate,
		DefaultDurationSeconds:  cfg.DefaultMode().DurationSeconds(),
		FallbackDurationSeconds: int(time.Duration(cfg.Playback.FallbackDuration) / time.Second),
		PlayTimeout:             time.Duration(cfg.Playback.PlayTimeout),
	})
	log.Info("session started", zap.String("backend", backendName))
	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var firstErr error
	if app.machine != nil {
		if err := app.machine.Close(); err != nil {
			firstErr = err
		}
		app.machine = nil
	}
	if app.backend != nil {
		if err := app.backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		app.backend = nil
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	return firstErr
}

// searchCatalog filters the loaded catalog. An empty query lists everything.
func searchCatalog(query string) []domain.Track {
	return catalog.Search(app.catalog, query)
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}

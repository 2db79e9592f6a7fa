package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
)

// env bundles what every command needs: config, logger, database and settings.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *sql.DB
	provider *infra.SQLProvider
	settings *usecase.Settings
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// openEnv loads config and opens the encrypted store, creating its key on first use.
func openEnv(ctx context.Context, logger *zap.Logger) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = createCLILogger()
	}

	key, err := infra.EnsureKey(infra.NewFileKeyProvider(cfg.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load database key: %w", err)
	}
	db, err := infra.OpenDatabase(ctx, cfg.DataDir, key)
	if err != nil {
		return nil, err
	}

	provider := infra.NewSQLProvider(db, logger)
	return &env{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		provider: provider,
		settings: usecase.NewSettings(provider, logger),
	}, nil
}

func (e *env) Close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}

// createCLILogger logs warnings and errors to stderr.
func createCLILogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// createDaemonLogger writes JSON logs to the configured files.
func createDaemonLogger(cfg config.Config) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{cfg.LogPath}
	config.ErrorOutputPaths = []string{cfg.ErrorLogPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

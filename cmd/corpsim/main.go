package main

import (
	"log/slog"
	"os"

	configloader "github.com/fangligamedev/AgentLinkin/external/config"
	"github.com/fangligamedev/AgentLinkin/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	slog.Info("startup: loading configuration")
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, err
	}
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "store_driver", cfg.StoreDriver)
	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

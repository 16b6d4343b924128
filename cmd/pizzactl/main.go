// Package main запускает операторскую консоль PizzaPortal поверх того же хранилища, что и сервер.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/console"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

type storageConfig struct {
	Storage       string `env:"STORAGE"`
	DataDir       string `env:"DATA_DIR" envDefault:".data"`
	DatabaseURI   string `env:"DATABASE_URI"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		sugar.Warnw("failed to load .env", "error", err.Error())
	}

	var cfg storageConfig
	if err := env.Parse(&cfg); err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	flag.StringVar(&cfg.DataDir, "f", cfg.DataDir, "directory for file storage")
	flag.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database URI")
	flag.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Options{
		Kind:          cfg.Storage,
		DataDir:       cfg.DataDir,
		DatabaseURI:   cfg.DatabaseURI,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}
	defer store.Close()

	if err := console.New(store, os.Stdout).Run(ctx, os.Stdin); err != nil {
		sugar.Errorw("console terminated with error", "error", err.Error())
	}
}

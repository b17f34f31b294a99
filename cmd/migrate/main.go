package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go-ems/internal/app"
	"go-ems/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", true, "insert demo data into an empty database")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMigrate(ctx, cfg, *seed); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
}

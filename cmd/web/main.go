package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/minaorangina/fantan/config"
	"github.com/minaorangina/fantan/server"
	"github.com/minaorangina/fantan/store"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	adv, err := cfg.NewAdvisor(logger)
	if err != nil {
		logger.Fatal("could not create advisor", zap.Error(err))
	}
	models, err := cfg.ModelList()
	if err != nil {
		logger.Fatal("could not read models", zap.Error(err))
	}

	s := server.NewServer(server.ServerOpts{
		Store:   store.NewInMemoryGameStore(),
		Logger:  logger,
		Engine:  cfg.Engine(),
		Models:  models,
		Advisor: adv,
		Origins: cfg.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", zap.String("addr", cfg.Addr()), zap.String("advisor", cfg.Advisor))
	if err := s.ListenAndServe(ctx, cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

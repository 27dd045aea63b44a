package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shourya0523/Pact-sub000/config"
	"github.com/shourya0523/Pact-sub000/devserver"
	"github.com/shourya0523/Pact-sub000/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if errs := cfg.Validate(); len(errs) > 0 {
		log.Fatal("Configuration validation failed:", errs)
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger := utils.GetLogger()

	srv, err := devserver.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to start development server", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("Development server listening", map[string]interface{}{
			"address": cfg.GetServerAddress(),
		})
		if err := srv.Listen(cfg.GetServerAddress()); err != nil {
			logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down development server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
		os.Exit(1)
	}
	logger.Info("Development server exited gracefully")
}

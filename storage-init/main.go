package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"employee-manager/config"
	"employee-manager/storage"
)

const provisionTimeout = time.Minute

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	logger := config.NewLogger(cfg.Debug, cfg.LogFormat)
	logger.WithField("backend", cfg.Backend).Info("storage init starting")

	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	if err := storage.Provision(ctx, cfg); err != nil {
		logger.Fatalf("provision %s: %v", cfg.Backend, err)
	}

	logger.Info("storage init complete")
}

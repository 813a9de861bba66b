package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"

	"employee-manager/client"
	"employee-manager/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Debug, cfg.LogFormat)
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(client.NewAPI(cfg.APIBase, cfg.Timeout), logger)
	sh := newShell(session, os.Stdin, os.Stdout)
	sh.colours = color.SupportColor()
	if err := sh.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/eringen/marginalia"
)

const shutdownTimeout = 10 * time.Second

func runServe(args []string, stderr io.Writer) error {
	flags := newFlagSet("serve", stderr)
	configPath := flags.StringP("config", "c", marginalia.EnvOr("MARGINALIA_CONFIG", "config.yaml"), "path to the YAML config file")
	addr := flags.String("addr", "", "listen address (overrides config)")
	verbose := flags.BoolP("verbose", "v", false, "log GOMAXPROCS adjustments")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr)
	if *verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(logger.Infof))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	path := *configPath
	if _, err := os.Stat(path); err != nil && !flags.Changed("config") {
		logger.Warnf("no config at %s, using defaults and environment", path)
		path = ""
	}
	cfg, err := marginalia.LoadConfig(path)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	app := marginalia.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		closeErr := app.Close()
		if err != nil {
			return err
		}
		return closeErr
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	if err := app.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/mpcoord/internal/api"
	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/factory"
	"github.com/mcoot/mpcoord/internal/metrics"
)

func main() {
	flags := pflag.NewFlagSet("mpcoord", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log configuration: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.Any("error", err))
		}
	}()

	routerCfg := api.RouterConfig{
		Logger:        logger,
		Coordinator:   app.Coordinator,
		AuthRateLimit: cfg.Server.AuthRateLimit,
	}
	if cfg.Server.MetricsEnabled {
		routerCfg.Metrics = metrics.Handler(app.Registry)
	}

	serverCfg := api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	servers := []*api.Server{api.NewServer("api", api.NewRouter(routerCfg), serverCfg, logger)}

	if cfg.Realtime.Enabled {
		rtCfg := serverCfg
		rtCfg.Port = cfg.Realtime.Port
		// WebSocket connections are long-lived
		rtCfg.ReadTimeout = 0
		rtCfg.WriteTimeout = 0
		servers = append(servers, api.NewServer("realtime", api.NewRealtimeRouter(app.Hub, logger), rtCfg, logger))
	}

	app.Coordinator.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(srv.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		// Stop the coordinator first so real-time connections close before the listeners drain
		app.Coordinator.Stop()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(context.Background()); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// Command nluengine starts the recognition engine's HTTP server.
//
// Configuration is loaded from a YAML file (-config) layered with
// environment variable overrides. See internal/config for details.
//
// Usage:
//
//	nluengine -config configs/nluengine.yaml
//	nluengine version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nluengine/nluengine/internal/bootstrap"
	"github.com/nluengine/nluengine/internal/config"
	"github.com/nluengine/nluengine/internal/logging"
	"github.com/nluengine/nluengine/internal/metrics"
	"github.com/nluengine/nluengine/pkg/server"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/nluengine.yaml", "path to the YAML configuration file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  nluengine           Start the recognition server\n")
			fmt.Fprintf(os.Stderr, "  nluengine version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("server error: %v", err)
	}

	log.Println("server shutdown complete")
}

func printVersion() {
	fmt.Printf("nluengine\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run loads configuration, wires the recognition engine, and starts the
// HTTP server, blocking until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	lc, err := loggingConfigFrom(cfg)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(lc)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting nluengine",
		zap.Int("port", cfg.Server.HTTPPort),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	recorder := metrics.NewRecognition(prometheus.DefaultRegisterer)

	built, err := bootstrap.Build(ctx, cfg, logger, recorder)
	if err != nil {
		return fmt.Errorf("building recognition engine: %w", err)
	}
	defer func() {
		_ = built.Close()
	}()

	srv := server.NewServer(cfg, built.Engine, logger)

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.HTTPPort)),
		zap.String("recognize_endpoint", "/recognize"),
		zap.String("metrics_endpoint", "/metrics"))

	return srv.Start(ctx)
}

func loggingConfigFrom(cfg *config.Config) (*logging.Config, error) {
	lc := logging.NewDefaultConfig()
	if cfg.Logging.Level != "" {
		level, err := logging.LevelFromString(cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	if cfg.Logging.Encoding != "" {
		lc.Format = cfg.Logging.Encoding
	}
	return lc, nil
}

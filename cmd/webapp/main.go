package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mkrupp/underwritepro/internal/infra/config"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/infra/metrics"
	"github.com/mkrupp/underwritepro/internal/infra/transport/http"
	"github.com/mkrupp/underwritepro/internal/svc/webapp"
)

const (
	appName = "uwp"
	svcName = "webapp"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig `envPrefix:"LOG_"`
	HTTP webapp.HTTPTransportConfig
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.webapp")

		if err != nil {
			log.ErrorContext(ctx, "error", logging.Err(err))

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	info, err := os.Stat(cfg.HTTP.DistDir)
	if err != nil {
		return fmt.Errorf("stat dist dir: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("dist dir %q is not a directory", cfg.HTTP.DistDir)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpTransport := webapp.NewHTTPTransport(
		os.DirFS(cfg.HTTP.DistDir),
		registry,
		metrics.NewWebMetrics(registry),
		cfg.HTTP,
	)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

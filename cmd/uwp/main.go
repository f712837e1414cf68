package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrupp/underwritepro/internal/cli"
	"github.com/mkrupp/underwritepro/internal/infra/config"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/infra/metrics"
	"github.com/mkrupp/underwritepro/internal/repo/storage"
	"github.com/mkrupp/underwritepro/internal/svc/api"
	"github.com/mkrupp/underwritepro/internal/svc/gateway"
	"github.com/mkrupp/underwritepro/internal/svc/router"
	"github.com/mkrupp/underwritepro/internal/svc/sessionsvc"
)

const (
	appName = "uwp"
	svcName = "cli"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig `envPrefix:"LOG_"`
	Client  gateway.ClientConfig
	API     api.Config            `envPrefix:"API_"`
	Storage storage.StorageConfig `envPrefix:"STORAGE_"`

	// Output is the default output format (json, yaml)
	Output string `env:"OUTPUT" default:"json"`

	// MetricsFile receives the client metrics in text format on exit when set
	MetricsFile string `env:"METRICS_FILE" default:""`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, args []string) (err error) {
	log := logging.GetLogger("cmd.uwp")

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "command failed", logging.Err(err))
		}
	}()

	storageFactory, err := storage.Factory(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage factory: %w", err)
	}

	store, err := storageFactory(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()

	if cfg.MetricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
				log.WarnContext(ctx, "writing metrics failed", logging.Err(err))
			}
		}()
	}

	client := gateway.NewClient(cfg.Client, nil, metrics.NewGatewayMetrics(registry))
	facades := api.New(client, cfg.API)

	sessions := sessionsvc.NewSessionStore(sessionsvc.NewCredentialStore(store), facades.Auth, nil)
	rtr := router.New(sessions, router.DefaultRoutes()...)

	sessions.BindNavigator(rtr)
	client.BindSession(sessions)
	sessions.Hydrate(ctx)

	app := cli.NewApp(sessions, rtr, facades, cli.IO{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}, cfg.Output)

	if err := app.Run(ctx, args); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(append([]string{appName}, firstWord(args)...), " "), err)
	}

	return nil
}

func firstWord(args []string) []string {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil
	}

	return args[:1]
}

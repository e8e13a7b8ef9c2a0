package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/edgeparse/internal/config"
	"github.com/danmuck/edgeparse/internal/engine"
	"github.com/danmuck/edgeparse/internal/observability"
	"github.com/danmuck/edgeparse/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "cmd/parsectl/config.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "service config path")
	initKind := flag.String("init", "", "write a config template (service|limits) and exit")
	output := flag.String("output", "", "output path for -init")
	force := flag.Bool("force", false, "overwrite an existing file with -init")
	validate := flag.Bool("validate", false, "load the service and limits config, then exit")
	flag.Parse()

	if *initKind != "" {
		if err := writeTemplate(*initKind, *output, *force); err != nil {
			log.Fatal().Err(err).Msg("write config template")
		}
		return
	}

	cfg, err := resolveServiceConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load service config")
	}
	logger := observability.InitLogger(cfg.Server.Name, cfg.LogLevel)

	limits := config.DefaultLimits()
	if cfg.LimitsPath != "" {
		if limits, err = config.LoadLimits(cfg.LimitsPath); err != nil {
			logger.Fatal().Err(err).Msg("load limits")
		}
	}
	if *validate {
		logger.Info().Str("config", *configPath).Str("limits", cfg.LimitsPath).Msg("config valid")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, limits, logger); err != nil {
		logger.Fatal().Err(err).Msg("parsectl stopped")
	}
}

func run(ctx context.Context, cfg serviceConfig, limits config.Limits, logger zerolog.Logger) error {
	eng := engine.New(limits, logger)
	srv := server.New(cfg.Server, eng, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	g.Go(func() error {
		reportRegistry(ctx, eng, cfg.StatsInterval, logger)
		return nil
	})
	return g.Wait()
}

func reportRegistry(ctx context.Context, eng *engine.Engine, every time.Duration, logger zerolog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := eng.RegistryStats()
			logger.Debug().
				Int("live", st.Live).
				Int("capacity", st.Capacity).
				Int("free", st.Free).
				Msg("registry stats")
		}
	}
}

// resolveServiceConfig falls back to defaults only when the default path is missing.
func resolveServiceConfig(path string) (serviceConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		return defaultServiceConfig(), nil
	}
	return loadServiceConfig(path)
}

func writeTemplate(kind, output string, force bool) error {
	target := output
	if target == "" {
		switch kind {
		case "limits":
			target = "cmd/parsectl/limits.toml"
		default:
			target = defaultConfigPath
		}
	}
	if err := config.WriteTemplate(target, kind, force); err != nil {
		return err
	}
	log.Info().Str("kind", kind).Str("path", target).Msg("wrote config template")
	return nil
}

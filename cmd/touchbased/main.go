// SPDX-License-Identifier: MIT

// Command touchbased runs the Touchbase wizard backend: voice cloning,
// call triggering, status polling and calendar-link derivation behind one
// HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/touchbase-fun/touchbase/internal/api"
	"github.com/touchbase-fun/touchbase/internal/config"
	"github.com/touchbase-fun/touchbase/internal/health"
	tblog "github.com/touchbase-fun/touchbase/internal/log"
	"github.com/touchbase-fun/touchbase/internal/playht"
	"github.com/touchbase-fun/touchbase/internal/poller"
	"github.com/touchbase-fun/touchbase/internal/session"
	"github.com/touchbase-fun/touchbase/internal/telemetry"
	"github.com/touchbase-fun/touchbase/internal/vapi"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	tblog.Configure(tblog.Config{
		Level:   "info",
		Service: "touchbased",
		Version: version,
	})
	logger := tblog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit flag, otherwise ${TOUCHBASE_DATA}/config.yaml
	// when it exists.
	effectivePath := strings.TrimSpace(*configPath)
	if effectivePath == "" {
		dataDir := strings.TrimSpace(config.ParseString("TOUCHBASE_DATA", ""))
		if dataDir != "" {
			autoPath := filepath.Join(dataDir, "config.yaml")
			if _, err := os.Stat(autoPath); err == nil {
				effectivePath = autoPath
			}
		}
	}

	loader := config.NewLoader(effectivePath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(tblog.FieldEvent, "config.load_failed").
			Str("config_path", effectivePath).
			Msg("failed to load configuration")
	}

	tblog.Configure(tblog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if effectivePath != "" {
		logger.Info().
			Str(tblog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str("path", effectivePath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(tblog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	logger.Info().
		Str(tblog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting touchbased")

	if !cfg.HasVapiCredentials() {
		logger.Warn().Msg("→ calling provider: NOT configured (set VAPI_API_KEY, TOUCHBASE_ASSISTANT_ID, TOUCHBASE_PHONE_NUMBER_ID)")
	} else {
		logger.Info().Msg("→ calling provider: configured")
	}
	if !cfg.HasPlayHTCredentials() {
		logger.Warn().Msg("→ voice cloning: NOT configured (set PLAYHT_API_KEY and PLAYHT_USER_ID)")
	} else {
		logger.Info().Msg("→ voice cloning: configured")
	}
	logger.Info().Msgf("→ poll interval: %s, call timeout: %s", cfg.PollInterval, cfg.CallTimeout)

	// Tracing is off unless an OTLP endpoint is configured.
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TracingEndpoint != "",
		ServiceName:    cfg.LogService,
		ServiceVersion: version,
		ExporterType:   cfg.TracingProtocol,
		Endpoint:       cfg.TracingEndpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	holder := config.NewHolder(cfg, config.NewLoader(effectivePath, version), effectivePath)

	var vapiOpts []vapi.Option
	if cfg.VapiRateRPS > 0 {
		vapiOpts = append(vapiOpts, vapi.WithRateLimit(float64(cfg.VapiRateRPS), cfg.VapiRateRPS))
	}
	vapiClient := vapi.New(cfg.VapiBaseURL, cfg.VapiAPIKey, vapiOpts...)
	playhtClient := playht.New(cfg.PlayHTBaseURL, cfg.PlayHTAPIKey, cfg.PlayHTUserID,
		playht.WithMaxAudioBytes(cfg.MaxAudioBytes))
	sessions := session.NewStore(cfg.SessionTTL)
	watchers := poller.NewManager(vapiClient, cfg.PollInterval, cfg.CallTimeout)
	defer watchers.Close()

	hm := health.NewManager(version)
	hm.RegisterChecker(health.CredentialChecker("vapi", vapiClient.Configured))
	hm.RegisterChecker(health.CredentialChecker("playht", playhtClient.Configured))

	server := api.New(api.Options{
		Holder:      holder,
		Vapi:        vapiClient,
		PlayHT:      playhtClient,
		Sessions:    sessions,
		Watchers:    watchers,
		Health:      hm,
		Tracer:      telemetry.Tracer("touchbased"),
		BaseContext: ctx,
	})

	apiSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", apiSrv.Addr).Msg("API server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", metricsSrv.Addr).Msg("metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		sessions.RunEvictions(gctx)
		return nil
	})

	if effectivePath != "" {
		g.Go(func() error {
			if err := holder.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("config watcher stopped")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		var firstErr error
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
	logger.Info().Msg("server exiting")
}

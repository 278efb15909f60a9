// Command mentor serves the startup mentor API: guided stage-by-stage conversations that
// turn a founder's idea into a business plan.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/api"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/config"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/health"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/journey"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/llm"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/metrics"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
	slackpkg "github.com/Ali-xra/ai-startup-mentor-sub000/internal/slack"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("llm_provider", cfg.LLMProvider).
		Bool("auth_enabled", cfg.AuthEnabled()).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting startup mentor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ds, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer ds.Close()

	cat, err := catalog.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load stage catalog")
	}
	if unreachable := access.UnreachableFeatures(); len(unreachable) > 0 {
		logger.Warn().Interface("features", unreachable).Msg("features no limit reads")
	}

	m := metrics.New()
	checker := health.NewChecker(logger)
	checker.Register("store", health.Ping(ds.Ping, health.StatusDown))

	// A missing provider is not fatal: the journey still runs, generation calls fail.
	gen, err := llm.New(llm.Config{
		Provider: strings.ToLower(cfg.LLMProvider),
		APIKey:   cfg.LLMAPIKey(),
		Model:    cfg.LLMModel(),
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("generator not configured, AI features disabled")
		checker.Register("generator", func(context.Context) health.Status { return health.StatusDegraded })
	} else {
		logger.Info().Str("generator", gen.Name()).Msg("generator initialized")
	}

	projects := project.NewStore(ds, logger)
	audit := access.NewAuditLog(ds, logger)
	gate := access.NewGate(access.NewSQLiteGrantStore(ds, logger), audit, logger)

	orch := journey.New(cat, projects, gate, gen, m, journey.Config{
		GenerationTimeout: cfg.GenerationTimeout,
		DefaultLocale:     cfg.DefaultLocale,
	}, logger)

	var notifier upgrade.Notifier
	if cfg.SlackEnabled() {
		slackNotifier := slackpkg.NewNotifier(cfg.SlackBotToken, cfg.SlackUpgradeChannel, logger)
		checker.Register("slack", health.Ping(slackNotifier.Ping, health.StatusDegraded))
		notifier = slackNotifier
		logger.Info().Str("channel", cfg.SlackUpgradeChannel).Msg("Slack upgrade notifications enabled")
	} else {
		logger.Info().Msg("Slack not configured, upgrade requests are not announced")
	}
	upgrades := upgrade.NewService(upgrade.NewStore(ds, logger), gate, notifier, m, cfg.UpgradeDefaultMonths, logger)

	authMode := api.AuthModeJWT
	if !cfg.AuthEnabled() {
		authMode = api.AuthModeNone
		logger.Warn().Msg("authentication disabled, every caller is an admin")
	}
	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		Auth: api.AuthConfig{
			Mode:   authMode,
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
		TLSCert:     cfg.TLSCert,
		TLSKey:      cfg.TLSKey,
	}, api.Deps{
		Catalog:  cat,
		Journey:  orch,
		Projects: projects,
		Gate:     gate,
		Audit:    audit,
		Upgrades: upgrades,
		Checker:  checker,
		Metrics:  m,
	}, logger)

	// WaitGroup for background work
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		upgrades.Run(ctx, cfg.UpgradeSweepInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runRetention(ctx, ds, logger)
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("startup mentor stopped")
}

// runRetention prunes old rows once a day.
func runRetention(ctx context.Context, ds *store.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if err := ds.RunRetention(ctx, store.DefaultRetention); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("retention run failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

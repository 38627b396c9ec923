// Command portal runs the agricultural early-warning service: advisory
// composition, alert generation, and queued alert dispatch behind an HTTP
// API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/savator12/agriadapt/internal/adapter/gormstore"
	httpadapter "github.com/savator12/agriadapt/internal/adapter/http"
	kafkaadapter "github.com/savator12/agriadapt/internal/adapter/kafka"
	"github.com/savator12/agriadapt/internal/adapter/sms"
	"github.com/savator12/agriadapt/internal/adapter/textgen"
	"github.com/savator12/agriadapt/internal/advisory"
	"github.com/savator12/agriadapt/internal/alerts"
	"github.com/savator12/agriadapt/internal/config"
	"github.com/savator12/agriadapt/internal/observability"
	"github.com/savator12/agriadapt/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := gormstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := store.AutoMigrate(); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	rules, err := advisory.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Error("rule set load failed", "error", err, "path", cfg.RulesPath)
		os.Exit(1)
	}
	logger.Info("rule set loaded", "rules", len(rules), "path", cfg.RulesPath)

	// Text generation is feature-flagged via TEXTGEN_ENABLED / OPENAI_API_KEY.
	var generator advisory.TextGenerator
	if cfg.TextGenEnabled {
		generator = textgen.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, logger)
		logger.Info("text generation enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("text generation disabled, using fallback rendering")
	}

	snapshots := weather.NewSnapshotCache(store, clock, cfg.SnapshotTTL, logger, metrics)
	composer := advisory.NewComposer(store, snapshots, generator, rules, clock, logger, metrics)
	alertGen := alerts.NewGenerator(store, composer, clock, logger, metrics)

	var provider alerts.Provider
	var closeProvider func() error
	switch cfg.SMSProvider {
	case "gateway":
		provider = sms.NewGatewayProvider(cfg.SMSGatewayURL, cfg.SMSGatewayKey, cfg.SMSTimeout, logger)
		logger.Info("sms gateway provider enabled", "url", cfg.SMSGatewayURL)
	case "kafka":
		bridge := kafkaadapter.NewBridgeProvider(cfg.KafkaBrokers, cfg.KafkaSMSTopic, logger)
		provider = bridge
		closeProvider = bridge.Close
		logger.Info("kafka sms bridge enabled", "topic", cfg.KafkaSMSTopic)
	default:
		provider = sms.NewMockProvider(cfg.MockFailureRate, rand.New(rand.NewSource(time.Now().UnixNano())), logger)
		logger.Info("mock sms provider enabled", "failure_rate", cfg.MockFailureRate)
	}

	dispatcher := alerts.NewDispatcher(store, provider, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{store}, composer, alertGen, dispatcher, cfg.DispatchLimit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closeProvider != nil {
		if err := closeProvider(); err != nil {
			logger.Error("provider close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// readiness reports ready once the database answers a ping.
type readiness struct {
	store *gormstore.Store
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	return r.store.Ping(ctx)
}

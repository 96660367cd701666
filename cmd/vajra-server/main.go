package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
	"github.com/shikhar1809/vajra-core/pkg/api"
	"github.com/shikhar1809/vajra-core/pkg/auth"
	"github.com/shikhar1809/vajra-core/pkg/config"
	"github.com/shikhar1809/vajra-core/pkg/events"
	"github.com/shikhar1809/vajra-core/pkg/graph"
	"github.com/shikhar1809/vajra-core/pkg/health"
	"github.com/shikhar1809/vajra-core/pkg/logging"
	"github.com/shikhar1809/vajra-core/pkg/metrics"
	"github.com/shikhar1809/vajra-core/pkg/server"
	"github.com/shikhar1809/vajra-core/pkg/vsi"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	bootLogger := logging.NewDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger.Error("failed to load config", logging.Error(err))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logger.Info("vajra-core starting", logging.String("addr", cfg.Server.Addr))

	registry := metrics.NewRegistry()
	bus := events.NewBus()
	defer bus.Shutdown()

	securityGraph := graph.New(
		graph.WithLogger(logger.With(logging.String("component", "graph"))),
		graph.WithMetrics(registry),
		graph.WithEventBus(bus),
	)

	alertManager := alerting.NewManager(cfg.Alerting,
		alerting.WithLogger(logger.With(logging.String("component", "alerting"))),
		alerting.WithMetrics(registry),
		alerting.WithEventBus(bus),
	)
	defer alertManager.Drain()

	aggregator := vsi.NewAggregator(securityGraph,
		vsi.WithAlertCounter(alertManager),
		vsi.WithMetrics(registry),
	)

	// Feed raised and escalated alerts into the aggregator's event log
	// so the index and executive summary reflect alert activity.
	go feedAlertEvents(bus.Subscribe(context.Background(), events.TopicAlertRaised), aggregator)
	go feedAlertEvents(bus.Subscribe(context.Background(), events.TopicAlertEscalated), aggregator)

	var jwtManager *auth.JWTManager
	if cfg.Auth.Secret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
		if err != nil {
			logger.Error("failed to initialize auth", logging.Error(err))
			os.Exit(1)
		}
	} else {
		logger.Warn("no JWT secret configured, mutating endpoints are unauthenticated")
	}

	checker := health.NewChecker()
	checker.RegisterReadinessCheck("graph", func() health.Check {
		stats := securityGraph.Stats()
		return health.Check{
			Status: health.StatusHealthy,
			Details: map[string]any{
				"entities":      stats.TotalEntities,
				"relationships": stats.TotalRelationships,
			},
		}
	})

	apiOpts := []api.Option{
		api.WithLogger(logger.With(logging.String("component", "api"))),
		api.WithMetrics(registry),
	}
	if jwtManager != nil {
		apiOpts = append(apiOpts, api.WithAuth(jwtManager))
	}
	apiServer := api.NewServer(securityGraph, aggregator, alertManager, checker, apiOpts...)

	httpServer := server.NewGracefulServer(cfg.Server.Addr, apiServer.Handler(), logger,
		server.WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second))
	if err := httpServer.Start(); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}

	// ListenAndServe has returned, wait for the shutdown sequence to finish
	<-httpServer.Done()
	logger.Info("draining alert dispatches")
	alertManager.Drain()
	logger.Info("vajra-core stopped")
}

// feedAlertEvents forwards alert bus events into the aggregator's
// event log. The subscription channel closes on bus shutdown.
func feedAlertEvents(sub *events.Subscription, aggregator *vsi.Aggregator) {
	if sub == nil {
		return
	}
	for event := range sub.Events() {
		alert, ok := event.Payload.(*alerting.Alert)
		if !ok {
			continue
		}
		aggregator.RecordEvent(vsi.Module(alert.Module), alert.Type,
			vsi.Severity(alert.Severity), alert.Title, alert.Description)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/cbodonnell/wager/pkg/api"
	"github.com/cbodonnell/wager/pkg/catalog"
	"github.com/cbodonnell/wager/pkg/config"
	"github.com/cbodonnell/wager/pkg/contest"
	"github.com/cbodonnell/wager/pkg/log"
	"github.com/cbodonnell/wager/pkg/metrics"
	"github.com/cbodonnell/wager/pkg/negotiation"
	"github.com/cbodonnell/wager/pkg/network"
	"github.com/cbodonnell/wager/pkg/repositories"
	"github.com/cbodonnell/wager/pkg/settlement"
	"github.com/cbodonnell/wager/pkg/version"
	"github.com/cbodonnell/wager/pkg/workers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting wager server version %s", version.Get())

	if err := run(); err != nil {
		panic(fmt.Sprintf("Server stopped: %v", err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	arenas, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("Loaded %d arenas from %s", len(arenas.Arenas()), cfg.CatalogPath)

	repository, err := repositories.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer repository.Close(context.Background())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(promRegistry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	tracker := contest.NewInMemoryTracker(nil)
	settler := settlement.NewSettler(settlement.NewSettlerOptions{
		Debiter: repository,
		Tracker: tracker,
	})

	// the hub needs the registry and the registry returns stakes through the hub
	var hub *network.NetworkManager
	registry, err := negotiation.NewRegistry(negotiation.NewRegistryOptions{
		Rules:      arenas,
		Balances:   repository,
		Engagement: tracker,
		Settlement: settler,
		Returner: negotiation.StakeReturnerFunc(func(partyID string, stake negotiation.Stake) {
			hub.ReturnStake(partyID, stake)
		}),
		Observer: collector,
		Settings: cfg.Settings(),
	})
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}

	hub, err = network.NewNetworkManager(network.NewNetworkManagerOptions{
		Sessions:          registry,
		Observer:          collector,
		OutboundQueueSize: cfg.OutboundQueueSize,
		OriginPatterns:    cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to create network manager: %w", err)
	}
	registry.Subscribe(hub.OnSnapshot)

	sweepWorker := workers.NewSweepWorker(workers.NewSweepWorkerOptions{
		Sweeper:  registry,
		Interval: cfg.SweepInterval,
	})

	var tlsConfig *api.TLSConfig
	if cfg.TLSEnabled() {
		tlsConfig = &api.TLSConfig{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		}
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:      cfg.HTTPPort,
		TLS:       tlsConfig,
		Sessions:  registry,
		Tracker:   tracker,
		Wallets:   repository,
		Arenas:    arenas,
		WebSocket: hub,
		Metrics:   collector,
		Gatherer:  promRegistry,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweepWorker.Start(gctx)
	})
	g.Go(apiServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := apiServer.Stop(shutdownCtx)

		// stakes are returned before the connections go away
		registry.Shutdown()
		if hubErr := hub.Shutdown(shutdownCtx); hubErr != nil {
			log.Warn("Websocket connections did not close in time: %v", hubErr)
		}
		return err
	})

	return g.Wait()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/handbook/internal/catalog"
	"github.com/alexanderramin/handbook/internal/cli"
	"github.com/alexanderramin/handbook/internal/config"
	"github.com/alexanderramin/handbook/internal/events"
	"github.com/alexanderramin/handbook/internal/logging"
	"github.com/alexanderramin/handbook/internal/metrics"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/alexanderramin/handbook/internal/source"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	blobs, closeBlobs, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := closeBlobs(); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return err
	}

	// Events
	bus := events.NewBus(logger)
	defer bus.Close()
	bus.Subscribe(events.TopicAll, collector.HandleEvent)
	bus.Subscribe(events.TopicAll, func(ev events.Event) {
		st := ev.Catalog.Stats()
		logger.Debug("catalog event",
			zap.String("topic", string(ev.Topic)),
			zap.Uint64("sequence", ev.Sequence),
			zap.Int("departments", st.Departments),
			zap.Int("categories", st.Categories),
			zap.Int("processes", st.Processes),
		)
	})

	store := catalog.New(blobs,
		catalog.WithSource(source.FromConfig(cfg.Seed)),
		catalog.WithPublisher(bus),
		catalog.WithObserver(catalog.MultiObserver{catalog.NewLogObserver(logger), collector}),
		catalog.WithStorageKey(cfg.Storage.Key),
		catalog.WithFetchTimeout(cfg.FetchTimeout()),
		catalog.WithLogger(logger),
	)
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	app := &cli.App{
		Catalog:     store,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		Confirm:     cli.HuhConfirm,
		Logger:      logger,
		Gatherer:    registry,
		Addr:        cfg.Server.Addr,
		Config:      cfg,
		ConfigPath:  cfgPath,
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

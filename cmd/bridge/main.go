package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"

	"github.com/metabridge/metabridge"
	"github.com/metabridge/metabridge/internal"
	"github.com/metabridge/metabridge/internal/graph"
)

func main() {
	fs := flag.NewFlagSet("bridge", flag.ExitOnError)
	var (
		configPath = fs.String("config", "", "path to the YAML configuration file")
		addr       = fs.String("addr", ":8090", "address to listen on")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("BRIDGE")); err != nil {
		fmt.Fprintf(os.Stderr, "flag error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := metabridge.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := internal.LoadMappingDocument(ctx, cfg.Mapping.ArtifactPath, cfg.Mapping.S3Region)
	if err != nil {
		sugar.Warnw("mapping artifact load failed, falling back to embedded defaults",
			"path", cfg.Mapping.ArtifactPath, "err", err)
		doc = internal.DefaultMappingDocument()
	}

	catalog := graph.NewRESTClient(cfg.Remote.BaseURL, cfg.Remote.Username, cfg.Remote.Password, cfg.Remote.Timeout)
	collection := internal.NewMetadataCollection(cfg, catalog, doc)

	if cfg.Journal.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Journal.DSN)
		if err != nil {
			sugar.Fatalw("journal connection failed", "err", err)
		}
		defer pool.Close()
		journal, err := internal.NewTypeJournal(pool, cfg.Journal.Table)
		if err != nil {
			sugar.Fatalw("journal setup failed", "err", err)
		}
		if err := journal.EnsureSchema(ctx); err != nil {
			sugar.Fatalw("journal schema setup failed", "err", err)
		}
		collection.Publisher().SetJournal(journal)
		sugar.Infow("type journal enabled", "table", cfg.Journal.Table)
	}

	var source *internal.ChannelSource
	if cfg.Events.Enabled {
		source = internal.NewChannelSource(cfg.Events.BufferSize)
		translator := internal.NewEventTranslator(collection.TypeStore(), collection.Mapper())
		consumer := internal.NewConsumer(source, internal.LogSink{}, translator)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Errorw("event consumer stopped", "err", err)
			}
		}()
		sugar.Infow("event consumer started", "buffer", cfg.Events.BufferSize)
	}

	server := NewServer(collection, source)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("starting server", "addr", *addr, "collection", cfg.CollectionName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("shutdown incomplete", "err", err)
	}
	if source != nil {
		source.Close()
	}
}

func buildLogger(cfg metabridge.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

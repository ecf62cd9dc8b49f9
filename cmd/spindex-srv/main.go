package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats/view"

	"spindex/internal/buildinfo"
	spindex "spindex/internal/config"
	"spindex/internal/index"
	"spindex/internal/ingest"
	"spindex/internal/logging"
	"spindex/internal/search"
	"spindex/internal/server"
	"spindex/internal/setup"
	"spindex/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	config := spindex.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(context.Background())

	shutdownCh := make(chan error, 2)
	manager, err := env.ProvideIndexManager()(shutdownCh)
	if err != nil {
		return fmt.Errorf("index manager provider function error: %w", err)
	}

	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("manager.Run: %w", err)
	}

	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "spindex"})
	if err != nil {
		return fmt.Errorf("prometheus.NewExporter: %w", err)
	}
	view.RegisterExporter(exporter)
	if err := view.Register(index.Views...); err != nil {
		return fmt.Errorf("view.Register: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	ingestHandler, err := ingest.NewHandler(&config.Ingest, manager)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}
	deleteHandler, err := ingest.NewDeleteHandler(&config.Ingest, manager)
	if err != nil {
		return fmt.Errorf("ingest.NewDeleteHandler: %w", err)
	}
	searchHandler, err := search.NewHandler(&config.Search, manager)
	if err != nil {
		return fmt.Errorf("search.NewHandler: %w", err)
	}

	mux.Handle("/insert", ingestHandler)
	mux.Handle("/delete", deleteHandler)
	mux.Handle("/search", searchHandler)
	mux.Handle("/stats", search.NewStatsHandler(manager))
	mux.Handle("/metrics", exporter)
	mux.Handle("/health", server.HandleHealth(ctx))

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}

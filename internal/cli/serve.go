package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitzies/pulseflow"
	"github.com/fitzies/pulseflow/internal/logging"
	"github.com/fitzies/pulseflow/internal/presentation/tui"
	httpadapter "github.com/fitzies/pulseflow/pkg/adapters/http"
	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/observability"
)

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	File  string // optional definition file to preload
	Port  string
	Debug bool
}

// Serve starts the HTTP API backed by the simulated chain, with Prometheus
// metrics on /metrics. It blocks until the process receives an interrupt.
func Serve(opts ServeOptions) error {
	chain := memory.NewChain()
	store := memory.NewStore()

	if opts.File != "" {
		def, err := LoadDefinition(opts.File)
		if err != nil {
			return err
		}
		store.Put(&def.Workflow)
		chain, err = SeedChain(def)
		if err != nil {
			return err
		}
	}

	logger := logging.New(slog.LevelInfo)
	if opts.Debug {
		logger = logging.New(slog.LevelDebug)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	hooks := metrics.Hooks()
	if opts.Debug {
		hooks = domain.MergeHooks(hooks, tui.NewPrinter(os.Stdout).Hooks())
	}

	events := memory.NewEventLog()
	engine, err := pulseflow.New(chain, store,
		pulseflow.WithLogger(logger),
		pulseflow.WithHooks(hooks),
		pulseflow.WithSink(events),
	)
	if err != nil {
		return err
	}

	api := httpadapter.NewServer(engine, chain, events, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", api.Handler())

	srv := &http.Server{
		Addr:    ":" + opts.Port,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Starting PulseFlow server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("PulseFlow server stopped gracefully")
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/fieldwork"
	httpAdapter "github.com/aretw0/fieldwork/internal/adapters/http"
	"github.com/aretw0/fieldwork/internal/presentation/tui"
	"github.com/aretw0/fieldwork/pkg/observability"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts fieldwork in server mode, exposing drafts, section saves and save state as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, closer, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		tui.PrintBanner(os.Stderr)
	}

	deps, err := buildDeps(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := newService(cfg, deps, observability.NewMetrics(reg), logger)

	handler := httpAdapter.NewHandler(svc,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithGatherer(reg),
		httpAdapter.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		httpAdapter.WithVersion(fieldwork.Version),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting fieldwork server",
			"addr", srv.Addr,
			"store", cfg.Store.Driver,
			"drafts", cfg.Drafts.Driver,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("Fieldwork server stopped gracefully")
	}
	return nil
}

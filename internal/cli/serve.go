package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/classifier"
	"github.com/myelinproj/myelin/internal/config"
	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/router"
	"github.com/myelinproj/myelin/internal/server"
	"github.com/myelinproj/myelin/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and evolution cycle",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadOrDefault()

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Classifier is optional: routing degrades to the fallback without it.
	cls, err := classifier.NewClient(cfg.Classifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: classifier not configured (%v), unknown tasks fall back\n", err)
		cls = nil
	} else {
		fmt.Fprintf(os.Stderr, "  classifier: %s\n", cfg.Classifier.Provider)
	}

	eng := engine.New(db)
	eng.Interval = cfg.Evolution.Interval()
	eng.Metrics = engine.NewMetrics(prometheus.DefaultRegisterer)

	if _, err := eng.SeedGenesis(cmd.Context(), cfg.Station.ID); err != nil {
		return fmt.Errorf("seed genesis: %w", err)
	}

	eng.StartCycleTimer(cfg.Station.ID)
	defer eng.Stop()

	sup := router.New(cls)
	sup.Timeout = cfg.Classifier.Timeout()
	sup.Metrics = router.NewMetrics(prometheus.DefaultRegisterer)

	srv := server.New(db, eng, sup, cfg.Station.ID, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "myelin serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  station: %s\n", cfg.Station.ID)
		fmt.Fprintf(os.Stderr, "  cycle interval: %s\n", eng.Interval)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

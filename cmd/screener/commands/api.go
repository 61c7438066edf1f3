package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/api"
)

// apiCmd serves persisted run results over HTTP
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve run results over HTTP",
	Long: `Starts the read-only HTTP API over persisted runs.

Endpoints:
  GET /health
  GET /api/runs/latest
  GET /api/runs/{id}
  GET /api/regime

Requires DATABASE_URL.

Example:
  go run ./cmd/screener api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Overnight Screener API ===")

	a, err := newBaseApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return fmt.Errorf("api requires DATABASE_URL")
	}

	handler := api.NewRunHandler(a.store, a.log)
	server := api.New(a.cfg, a.log, api.NewRouter(handler, a.log))

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	fmt.Printf("Listening on port %s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("api server: %w", err)
	case <-sigChan:
	}

	a.log.Info("API server stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

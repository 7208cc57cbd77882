package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/api"
	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pantry over the JSON HTTP API",
		Long: "Serve attaches the store and serves /api/v1, /healthz and /metrics until\n" +
			"interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, a.listenAddr(listen))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config.yaml, else 127.0.0.1:3000)")
	return cmd
}

// listenAddr returns the --listen flag value, else the config.yaml listen
// key, else types.DefaultListen.
func (a *app) listenAddr(flag string) string {
	if flag != "" {
		return flag
	}
	return types.Config{Listen: a.config.Listen}.ListenAddr()
}

// serve runs the HTTP API on addr until ctx is done.
func (a *app) serve(ctx context.Context, addr string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		return sysError(fmt.Errorf("register metrics: %w", err))
	}

	backend, err := a.attachBackend(sqlite.WithMetrics(storeMetrics))
	if err != nil {
		return err
	}
	defer backend.Detach()

	server := api.NewServer(addr, backend, a.logger, registry)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return sysError(err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", zap.String("addr", addr))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return sysError(err)
	}
	if err := <-errCh; err != nil {
		return sysError(err)
	}
	return nil
}

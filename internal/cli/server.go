package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	// Server flags
	port     int
	bindAddr string
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the oracle query server",
	Long: `Start the oracled server which provides:
- HTTP query API for last, historical, windowed, cross and TWAP prices
- WebSocket feed of price updates when the websocket sink is enabled
- Periodic pruning of snapshots older than the retention period

The store is initialized from the [oracle] section on first start.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags override the [server] section
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.Flags().Changed("port") {
		a.cfg.Server.Port = port
	}
	if cmd.Flags().Changed("bind") {
		a.cfg.Server.Bind = bindAddr
	}
	return serve(ctx, a)
}

// serve runs the HTTP server and the pruner until ctx is cancelled.
func serve(ctx context.Context, a *app) error {
	initialized, err := a.initialize(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		if err := a.reconcile(ctx); err != nil {
			return err
		}
	}

	rpcServer, err := a.provider.RPCServer()
	if err != nil {
		return err
	}
	httpServer := rpcServer.HTTPServer(a.cfg.Server.Address(), a.cfg.Server.ReadTimeout)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return pruneLoop(gCtx, a, a.cfg.Server.PruneInterval) })

	err = g.Wait()
	a.log.Info("Server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pruneLoop deletes expired snapshots every interval. Failures are logged and
// retried on the next tick.
func pruneLoop(ctx context.Context, a *app, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pruned, err := a.oracle.Prune(ctx)
			if err != nil {
				a.log.Warn("Prune failed", "error", err)
				continue
			}
			if pruned > 0 {
				a.log.Debug("Pruned snapshots", "count", pruned)
			}
		}
	}
}

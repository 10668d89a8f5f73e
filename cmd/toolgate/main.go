// Command toolgate serves a catalog of tools over a JSON-RPC HTTP gateway.
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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voxline/toolgate/internal/channel"
	"github.com/voxline/toolgate/internal/config"
	"github.com/voxline/toolgate/internal/dashboard"
	"github.com/voxline/toolgate/internal/dispatch"
	"github.com/voxline/toolgate/internal/gateway"
	"github.com/voxline/toolgate/internal/protocol"
	"github.com/voxline/toolgate/internal/registry"
	"github.com/voxline/toolgate/internal/store"
	"github.com/voxline/toolgate/internal/tools"
)

const shutdownGrace = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "toolgate",
		Short: "JSON-RPC tool gateway over HTTP",
		Long: "toolgate exposes a catalog of schema-described tools through a JSON-RPC\n" +
			"endpoint with event-stream replies. Configuration comes from TOOLGATE_*\n" +
			"environment variables.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := config.NewLogger(cfg.LogLevel)

	kv, err := store.Open(cfg.StoreBackend)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	reg := registry.New(log)
	for _, unit := range tools.Calculator() {
		reg.Register(unit)
	}

	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	reg.Register(tools.Fetch(httpClient))
	reg.Register(tools.Search(httpClient, cfg.SearchEndpoint))
	reg.Register(tools.Think(kv))

	// One channel and dispatcher for the life of the process: all requests
	// share it, demultiplexed by the bridge.
	ch := channel.New(log)
	defer ch.Close()

	dispatch.New(log, reg, ch.Server(), cfg.ServerName, cfg.ServerVersion)
	bridge := protocol.New(log, ch.Client())

	dash, err := dashboard.New(reg, cfg.ServerName)
	if err != nil {
		return fmt.Errorf("init dashboard: %w", err)
	}

	gw := gateway.New(log, bridge, reg, dash, cfg.AuthTokens)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Gateway listening", "addr", cfg.Addr, "tools", len(reg.List()))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

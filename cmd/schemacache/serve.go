package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/schemacache/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schema document over HTTP",
	Long: `Start the HTTP server. GET /schema returns the document, POST /schema/refresh
re-checks the catalog and DELETE /schema/cache drops the in-memory copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		// Warm the cache so the first request does not pay for a full read.
		if err := a.Service.Refresh(ctx); err != nil {
			a.Log.WarnWith("initial refresh failed", err, nil)
		}

		return server.New(cfg, a.Service, a.Log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

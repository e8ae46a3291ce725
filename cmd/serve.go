// =============================================================================
// Manifest to Scale - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the HTTP upload API.
//
// COMMAND USAGE:
//   manifest2scale serve [--addr :8080]
//
// The server stops gracefully on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/server"
)

// listenAddr overrides server.addr from the configuration.
var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP upload API",
	Long: `The serve command starts an HTTP server that converts uploaded manifests.

Routes:
  POST /{company}/upload   multipart form with a "file" field (ftg, caf, ctg)
  GET  /manifests          recently processed manifests
  GET  /health             liveness probe
  GET  /metrics            Prometheus metrics`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, mainConfig, logger, false, company.Unknown)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := mainConfig.Server.Addr
		if listenAddr != "" {
			addr = listenAddr
		}

		srv := server.New(server.Options{
			Addr:            addr,
			Converter:       a.converter,
			Store:           a.store,
			Logger:          logger,
			APIToken:        mainConfig.Server.APIToken,
			MaxUploadBytes:  mainConfig.Server.MaxUploadMB << 20,
			ShutdownTimeout: mainConfig.Server.ShutdownTimeout,
		})
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from server.addr)")
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navshell/internal/shell"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
		base string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the shell server",
		Long: `Start the single-page shell server.

Every location under the base path is served the shell page. Browsers
connect back over a WebSocket and navigate through a server-side
resolver.

Examples:
  navshell serve
  navshell serve --port=9000 --base=/app
  navshell serve --config s3://config-bucket/navshell.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := flags.loadConfig(ctx)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if base != "" {
				cfg.Base = base
			}

			srv, err := shell.New(cfg, shell.WithLogger(logger(cfg, os.Stderr)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBanner(out)
			success(out, "Serving %d routes on http://%s%s", srv.Table().Len(), cfg.Address(), cfg.Base)
			if cfg.Metrics.Enabled {
				info(out, "Metrics at http://%s%s", cfg.Address(), cfg.Metrics.Path)
			}
			info(out, "Press Ctrl+C to stop")

			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&base, "base", "", "Base path the application is served under")

	return cmd
}

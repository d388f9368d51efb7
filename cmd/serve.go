package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/caseform/internal/devserver"
	"github.com/danielolaszy/caseform/internal/logging"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser client with runtime configuration",
		Long: `Serve the browser client's static files for local development.

Requests for /env.js return a script that assigns the webhook URL and key to
window.__APP_CONFIG__, read from the env file and the process environment at
startup. All other paths are served from the static root.

Example:
  caseform serve --port 5173 --root ./web`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			port := cfg.Server.Port
			if cmd.Flags().Changed("port") {
				if port, err = cmd.Flags().GetInt("port"); err != nil {
					return err
				}
			}
			root := cfg.Server.Root
			if cmd.Flags().Changed("root") {
				if root, err = cmd.Flags().GetString("root"); err != nil {
					return err
				}
			}
			host, err := cmd.Flags().GetString("host")
			if err != nil {
				return err
			}

			srv, err := devserver.NewServer(root, devserver.RuntimeConfig{
				FlowURL: cfg.Flow.URL,
				FlowKey: cfg.Flow.Key,
			})
			if err != nil {
				return err
			}

			listener, url, err := devserver.Listen(host, port)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.Info("dev server running",
				"url", url,
				"root", srv.Root(),
				"flow_url_set", cfg.Flow.URL != "",
				"flow_key_set", cfg.Flow.Key != "")
			fmt.Fprintf(cmd.OutOrStdout(), "Dev server running at %s\n", url)

			return srv.Serve(ctx, listener)
		},
	}

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from PORT, then 5173)")
	serveCmd.Flags().String("root", "", "directory to serve (default from STATIC_ROOT, then .)")
	serveCmd.Flags().String("host", "", "interface to bind (default all)")

	return serveCmd
}

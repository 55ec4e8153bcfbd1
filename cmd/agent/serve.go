package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ask, tool-call, history, health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer a.Close()

			if port == "" {
				port = a.cfg.Port
			}

			c, err := a.buildPipeline(ctx)
			if err != nil {
				return err
			}
			if n, err := c.history.Count(ctx); err == nil {
				a.log.Debug("history loaded", "entries", n)
			}

			srv, err := server.New(server.Config{
				Addr:    ":" + port,
				Logger:  a.log,
				Asker:   c.pipeline,
				Weather: c.weather,
				Index:   c.index,
				TopK:    a.cfg.Vector.TopK,
				History: c.history,
				Checks:  a.checks,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default PORT)")
	return cmd
}

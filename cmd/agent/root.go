package main

import (
	"github.com/spf13/cobra"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		logLevel string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Answer questions from live weather or an indexed PDF",
		Long: `A small assistant that routes each question either to a live weather
lookup or to retrieval over an indexed document, then asks a language model
for the final answer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.log = config.NewLogger(cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newAskCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

// Package cmd defines the meddetect command line.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/meddetect/internal/config"
	"github.com/example/meddetect/internal/logging"
)

type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

// RootCommand creates the root command and its sub-commands.
func RootCommand() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:           "meddetect",
		Short:         "MedDetect demonstration service and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(
		serveCommand(rt),
		detectCommand(rt),
		contactCommand(rt),
	)

	return rootCmd
}

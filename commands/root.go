package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"makerchecker-backend/config"
)

// state is filled by the root command before any subcommand runs.
type state struct {
	cfg *config.Configuration
	log *logrus.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	st := &state{}
	var logLevelOverride string

	cmd := &cobra.Command{
		Use:           "makerchecker",
		Short:         "Dual-control request service",
		Long:          `Every change to a registered record is proposed by a maker and applied only after a different checker approves it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevelOverride != "" {
				cfg.LogLevel = logLevelOverride
			}
			st.cfg = cfg
			st.log = cfg.Logger()
			st.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		newServeCmd(st),
		newMigrateCmd(st),
		newExpireCmd(st),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

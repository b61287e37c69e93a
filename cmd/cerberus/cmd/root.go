/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/config"
	"github.com/ssargent/cerberus/pkg/di"
)

// app carries the flags and dependencies shared by every subcommand.
type app struct {
	configPath string
	dataDir    string
	logLevel   string
	stats      bool

	container *di.Container
}

// NewRootCmd builds the command tree. Each call is independent, so tests
// can run commands side by side.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cerberus",
		Short: "Cerberus - polymorphic wire format and trace engine",
		Long: `Cerberus reads and writes self-describing binary frames for a
polymorphic document model, and runs trace chains that locate and
update values inside those documents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipContainer(cmd) {
				return nil
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			c, err := di.NewContainer(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.container = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.container == nil || !a.stats {
				return nil
			}
			return a.writeStats(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.GetDefaultConfigPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&a.dataDir, "data-dir", "d", "", "Override the configured data directory")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&a.stats, "stats", false, "Print codec and engine metrics after the command")

	rootCmd.AddCommand(
		newInitCmd(a),
		newRegistryCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newInspectCmd(a),
		newRepairCmd(a),
		newExecCmd(a),
		newStoreCmd(a),
		newReplayCmd(a),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// close releases the container opened by PersistentPreRunE.
func (a *app) close() {
	if a.container != nil {
		_ = a.container.Close()
		a.container = nil
	}
}

// skipContainer reports whether cmd runs before any configuration exists.
func skipContainer(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations["standalone"]
	return ok
}

var standalone = map[string]string{"standalone": "true"}

// loadConfig reads the config file when it exists and applies flag
// overrides on top.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if config.ConfigExists(a.configPath) {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	return cfg, cfg.Validate()
}

func (a *app) writeStats(cmd *cobra.Command) error {
	families, err := a.container.Metrics().Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/config"
	"github.com/ssargent/cerberus/pkg/wire"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration and registry file",
		Long: `Write a default configuration file and a registry file holding every
built-in discriminator binding.

This command will:
- Create the configuration file at --config
- Create the data directory
- Save the built-in registry to the configured registry file

Examples:
  cerberus init
  cerberus init --config ./cerberus.yaml --data-dir ./data`,
		Annotations: standalone,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, a.dataDir)
			if err != nil {
				return err
			}

			reg, err := wire.NewRegistry()
			if err != nil {
				return err
			}
			if err := reg.SaveFile(cfg.RegistryPath()); err != nil {
				return errors.Wrap(err, "save registry")
			}

			cmd.Printf("Config written to %s\n", a.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("Registry with %d bindings written to %s\n", reg.Len(), cfg.RegistryPath())
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return initCmd
}

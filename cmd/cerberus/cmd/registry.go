package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/wire"
)

func newRegistryCmd(a *app) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the discriminator registry file",
	}
	registryCmd.AddCommand(newRegistryInitCmd(a), newRegistryListCmd(a))
	return registryCmd
}

func newRegistryInitCmd(a *app) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Save the built-in registry to the configured registry file",
		Long: `Save every built-in discriminator binding to the registry file.

Example:
  cerberus registry init --force`,
		Annotations: standalone,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.RegistryPath()
			if path == "" {
				return errors.New("no registry_file configured")
			}
			if _, err := os.Stat(path); err == nil && !force {
				cmd.Printf("Registry already exists at %s. Use --force to overwrite.\n", path)
				return nil
			}

			reg, err := wire.NewRegistry()
			if err != nil {
				return err
			}
			if err := reg.SaveFile(path); err != nil {
				return err
			}
			cmd.Printf("Registry with %d bindings written to %s\n", reg.Len(), path)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing registry file")
	return initCmd
}

func newRegistryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bindings of the active registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tTYPE\tBUILDER")
			for _, rec := range a.container.Registry().Records() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", rec.Code, rec.TypeName, rec.BuilderName)
			}
			return tw.Flush()
		},
	}
}

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/storage"
	"github.com/ssargent/cerberus/pkg/wire"
)

func newStoreCmd(a *app) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Store, fetch and delete encoded values",
	}
	storeCmd.AddCommand(
		newStorePutCmd(a),
		newStoreGetCmd(a),
		newStoreDeleteCmd(a),
		newStoreListCmd(a),
	)
	return storeCmd
}

func parseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, errors.Wrapf(err, "invalid id %q", s)
	}
	return id, nil
}

func newStorePutCmd(a *app) *cobra.Command {
	var chain bool

	putCmd := &cobra.Command{
		Use:   "put <file.yaml>",
		Short: "Store a YAML value and print its id",
		Long: `Store a document, or a trace chain with --chain, and print the new id.

Examples:
  cerberus store put doc.yaml
  cerberus store put --chain chain.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "read %s", args[0])
			}
			var v codec.Value
			if chain {
				v, err = wire.ParseChainYAML(data)
			} else {
				v, err = wire.ParseYAML(data)
			}
			if err != nil {
				return errors.Wrapf(err, "parse %s", args[0])
			}

			s, err := a.container.Store()
			if err != nil {
				return err
			}
			id, err := s.Put(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	putCmd.Flags().BoolVar(&chain, "chain", false, "Parse the file as a trace chain")
	return putCmd
}

func newStoreGetCmd(a *app) *cobra.Command {
	var raw bool

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored value as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.container.Store()
			if err != nil {
				return err
			}

			if raw {
				entry, err := s.GetEntry(id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(entry.Frame))
				return err
			}

			v, err := s.Get(id)
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), v)
		},
	}

	getCmd.Flags().BoolVar(&raw, "raw", false, "Print the stored frame as hex")
	return getCmd
}

func newStoreDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.container.Store()
			if err != nil {
				return err
			}
			if err := s.Delete(id); err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", id)
			return nil
		},
	}
}

func newStoreListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.container.Store()
			if err != nil {
				return err
			}
			ids, err := s.IDs()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTORED\tTYPE\tBYTES")
			for _, id := range ids {
				entry, err := s.GetEntry(id)
				if errors.Is(err, storage.ErrCorrupted) {
					fmt.Fprintf(tw, "%s\t-\t<corrupted>\t-\n", id)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", id, entry.Time().UTC().Format(time.RFC3339), a.builderName(entry.Code), len(entry.Frame))
			}
			return tw.Flush()
		},
	}
}

func (a *app) builderName(code codec.Discriminator) string {
	if code == codec.Absent {
		return "<absent>"
	}
	b, err := a.container.Registry().Builder(code)
	if err != nil {
		return fmt.Sprintf("<unknown %d>", code)
	}
	return b.Name()
}

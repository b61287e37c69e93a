package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var save bool

	replayCmd := &cobra.Command{
		Use:   "replay <chain-id> <document-id>",
		Short: "Run a stored chain against a stored document",
		Long: `Run the trace chain stored under chain-id against the document stored
under document-id. With --save a successful run writes the changed
document back.

Example:
  cerberus replay 2abc... 2def... --save`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, err := parseID(args[0])
			if err != nil {
				return err
			}
			docID, err := parseID(args[1])
			if err != nil {
				return err
			}
			s, err := a.container.Store()
			if err != nil {
				return err
			}

			out, err := s.Replay(cmd.Context(), a.container.Engine(), chainID, docID, save)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			writeOutcome(w, out)
			if !out.Result.OK {
				return errors.Wrapf(errChainFailed, "chain %s", chainID)
			}
			if save {
				cmd.Printf("# saved %s\n", docID)
			}
			return writeValue(w, out.Value)
		},
	}

	replayCmd.Flags().BoolVar(&save, "save", false, "Write the changed document back on success")
	return replayCmd
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/query"
	"github.com/ssargent/cerberus/pkg/wire"
)

// errChainFailed makes the process exit non-zero when a step fails.
var errChainFailed = errors.New("trace chain failed")

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <document.yaml> <chain.yaml>...",
		Short: "Run trace chains against a YAML document",
		Long: `Run each chain against its own copy of the document and print the
outcome and the resulting document. Chains run concurrently.

Example:
  cerberus exec doc.yaml add-env.yaml drop-port.yaml`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docText, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "read %s", args[0])
			}

			jobs := make([]query.Job, 0, len(args)-1)
			for _, path := range args[1:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "read %s", path)
				}
				head, err := wire.ParseChainYAML(data)
				if err != nil {
					return errors.Wrapf(err, "parse %s", path)
				}
				root, err := wire.ParseYAML(docText)
				if err != nil {
					return errors.Wrapf(err, "parse %s", args[0])
				}
				jobs = append(jobs, query.Job{Root: root, Head: head})
			}

			outcomes, err := a.container.Engine().ExecuteAll(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			failed := 0
			w := cmd.OutOrStdout()
			for i, out := range outcomes {
				fmt.Fprintf(w, "--- # %s\n", args[i+1])
				writeOutcome(w, out)
				if !out.Result.OK {
					failed++
				}
				if err := writeValue(w, jobs[i].Root); err != nil {
					return err
				}
			}
			if failed > 0 {
				return errors.Wrapf(errChainFailed, "%d of %d chains", failed, len(outcomes))
			}
			return nil
		},
	}
}

// writeOutcome prints an outcome as YAML comments.
func writeOutcome(w io.Writer, out query.Outcome) {
	fmt.Fprintf(w, "# result: %s\n# steps: %d\n# path: %s\n", out.Result, out.Steps, out.Path)
	if out.FailedAt >= 0 {
		fmt.Fprintf(w, "# failed at step %d (%s)\n", out.FailedAt, out.FailedKind)
	}
}

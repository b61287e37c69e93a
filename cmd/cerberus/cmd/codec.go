package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/framelog"
	"github.com/ssargent/cerberus/pkg/wire"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		chain     bool
		out       string
		appendOut bool
	)

	encodeCmd := &cobra.Command{
		Use:   "encode <file.yaml>...",
		Short: "Encode YAML values into frames",
		Long: `Encode each YAML file into one frame. Frames are concatenated and
written to the --out log, or printed as hex.

Examples:
  cerberus encode doc.yaml
  cerberus encode --chain chain.yaml --out frames.log --append`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]codec.Value, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "read %s", path)
				}
				var v codec.Value
				if chain {
					v, err = wire.ParseChainYAML(data)
				} else {
					v, err = wire.ParseYAML(data)
				}
				if err != nil {
					return errors.Wrapf(err, "parse %s", path)
				}
				values = append(values, v)
			}

			if out != "" {
				return appendFrames(cmd, a, out, appendOut, values)
			}

			var frames []byte
			for i, v := range values {
				frame, err := a.container.Codec().Encode(v)
				if err != nil {
					return errors.Wrapf(err, "encode %s", args[i])
				}
				frames = append(frames, frame...)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(frames))
			return err
		},
	}

	encodeCmd.Flags().BoolVar(&chain, "chain", false, "Parse the files as trace chains")
	encodeCmd.Flags().StringVarP(&out, "out", "o", "", "Write the frames to this log file instead of printing hex")
	encodeCmd.Flags().BoolVar(&appendOut, "append", false, "Append to the --out log instead of replacing it")
	return encodeCmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var hexInput string

	decodeCmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode frames and print them as YAML",
		Long: `Decode every frame in the input and print each value as a YAML
document. Top-level frames with an unknown discriminator are skipped and
reported.

Examples:
  cerberus decode frames.bin
  cerberus decode --hex 0001 0000002a`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, hexInput, args)
			if err != nil {
				return err
			}

			buf := codec.WrapBuffer(data)
			r := a.container.Codec().NewReader(buf)
			w := cmd.OutOrStdout()
			for i := 0; buf.Remaining() > 0; i++ {
				start := buf.Position()
				info, err := r.SkipFrame()
				if codec.IsUnknownDiscriminator(err) {
					fmt.Fprintf(w, "--- # frame %d at %d: unknown discriminator %d, %d bytes skipped\n", i, start, info.Code, info.Size)
					continue
				}
				if err != nil {
					return errors.Wrapf(err, "frame %d at offset %d", i, start)
				}

				if err := buf.Seek(start); err != nil {
					return err
				}
				v, err := r.ReadValue()
				if err != nil {
					return errors.Wrapf(err, "frame %d at offset %d", i, start)
				}
				fmt.Fprintf(w, "--- # frame %d: %s\n", i, codec.TypeName(v))
				if err := writeValue(w, v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	decodeCmd.Flags().StringVar(&hexInput, "hex", "", "Read frames from this hex string")
	return decodeCmd
}

func newInspectCmd(a *app) *cobra.Command {
	var hexInput string

	inspectCmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "List frame headers without decoding payloads",
		Long: `Walk the top-level frames of the input and print each header. The
input is streamed and payloads are skipped, so frames with unknown
discriminators are listed too.

Example:
  cerberus inspect frames.bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, hexInput, args)
			if err != nil {
				return err
			}
			defer in.Close()

			src := codec.NewStreamReader(in)
			r := a.container.Codec().NewReader(src)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OFFSET\tCODE\tBUILDER\tTAG\tSIZE")
			for !src.AtEOF() {
				start := src.Consumed()
				info, err := r.SkipFrame()
				builder := info.Builder
				switch {
				case codec.IsUnknownDiscriminator(err):
					builder = "<unknown>"
				case err != nil:
					_ = tw.Flush()
					return errors.Wrapf(err, "frame at offset %d", start)
				case info.Code == codec.Absent:
					builder = "<absent>"
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\n", start, info.Code, builder, info.Tag, info.Size)
			}
			return tw.Flush()
		},
	}

	inspectCmd.Flags().StringVar(&hexInput, "hex", "", "Read frames from this hex string")
	return inspectCmd
}

func appendFrames(cmd *cobra.Command, a *app, path string, appendOut bool, values []codec.Value) error {
	w, err := framelog.OpenWriter(framelog.WriterConfig{Path: path, Truncate: !appendOut}, a.container.Codec())
	if err != nil {
		return err
	}
	for _, v := range values {
		if _, err := w.Append(v); err != nil {
			_ = w.Close()
			return err
		}
	}
	size := w.Size()
	if err := w.Close(); err != nil {
		return err
	}
	cmd.Printf("Wrote %d frames to %s (%d bytes)\n", len(values), path, size)
	return nil
}

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <file>",
		Short: "Cut a partial frame from the tail of a frame log",
		Long: `Walk the frames of a log file and truncate it at the first frame that
cannot be walked, such as a frame cut short by a crash.

Example:
  cerberus repair frames.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := framelog.Recover(args[0], a.container.Codec())
			if err != nil {
				return err
			}
			cmd.Printf("Frames: %d (%d with unknown discriminators)\n", res.Frames, res.UnknownFrames)
			cmd.Printf("Valid bytes: %d\n", res.ValidSize)
			if res.TruncatedBytes > 0 {
				cmd.Printf("Recovered from corruption: %d bytes truncated\n", res.TruncatedBytes)
			}
			return nil
		},
	}
}

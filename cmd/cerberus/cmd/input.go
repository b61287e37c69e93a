package cmd

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/wire"
)

// readInput returns the bytes named by the hex flag, the path argument,
// or stdin when the path is "-" or missing.
func readInput(cmd *cobra.Command, hexInput string, args []string) ([]byte, error) {
	if hexInput != "" {
		data, err := hex.DecodeString(strings.Join(strings.Fields(hexInput), ""))
		if err != nil {
			return nil, errors.Wrap(err, "invalid --hex input")
		}
		return data, nil
	}
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", args[0])
	}
	return data, nil
}

// openInput is readInput for commands that stream their input.
func openInput(cmd *cobra.Command, hexInput string, args []string) (io.ReadCloser, error) {
	if hexInput != "" || len(args) == 0 || args[0] == "-" {
		data, err := readInput(cmd, hexInput, args)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", args[0])
	}
	return f, nil
}

// writeValue prints v in its YAML text form.
func writeValue(w io.Writer, v codec.Value) error {
	text, err := wire.MarshalYAML(v)
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}

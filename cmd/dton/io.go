package main

import (
	"io"
	"os"

	"github.com/bsm/dton"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// readInput reads a file, or stdin if the name is empty or "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "read stdin")
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	theLog.Debug("read input", "file", name, "size", len(data))
	return data, nil
}

// writeOutput writes data to a file, or stdout if the name is empty or "-".
func writeOutput(cmd *cobra.Command, name string, data []byte) error {
	if name == "" || name == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return errors.Wrap(err, "write stdout")
	}

	if err := os.WriteFile(name, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	theLog.Debug("wrote output", "file", name, "size", len(data))
	return nil
}

// openDton opens a façade over a buffer file and an optional update file.
func openDton(cmd *cobra.Command, name, update string, o *dton.ReaderOptions) (*dton.Dton, error) {
	raw, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}

	var upd []byte
	if update != "" {
		if upd, err = readInput(cmd, update); err != nil {
			return nil, err
		}
	}

	d, err := dton.NewDtonFromPair(dton.NewPair(raw, upd), o)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	return d, nil
}

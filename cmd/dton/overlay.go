package main

import (
	"fmt"

	"github.com/bsm/dton"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// overlayT implements the commands which read through a façade.
type overlayT struct {
	Commands []*cobra.Command

	// Configuration.
	update string
	prefix string
}

func newOverlay() *overlayT {
	o := &overlayT{}

	get := &cobra.Command{
		Use:   "get <buffer file> <key>...",
		Short: "print top-level values",
		Args:  cobra.MinimumNArgs(2),
		RunE:  o.runGet,
	}
	query := &cobra.Command{
		Use:   "query <buffer file> <path>",
		Short: "run a path query against the merged JSON",
		Long: `
Run a GJSON path query, e.g. "users.#.name", against the JSON materialized
from a buffer and its optional update.
`,
		Args: cobra.ExactArgs(2),
		RunE: o.runQuery,
	}
	merge := &cobra.Command{
		Use:   "merge <buffer file> <buffer file>",
		Short: "merge the top-level keys of two unrelated buffers",
		Args:  cobra.ExactArgs(2),
		RunE:  o.runMerge,
	}

	for _, cmd := range []*cobra.Command{get, query} {
		cmd.Flags().StringVarP(&o.update, "update", "u", "", "update buffer to overlay")
	}
	for _, cmd := range []*cobra.Command{get, query, merge} {
		cmd.Flags().StringVar(&o.prefix, "b64-prefix", dton.DefaultBase64Prefix, "base64 string marker")
	}
	o.Commands = []*cobra.Command{get, query, merge}
	return o
}

func (o *overlayT) options() *dton.ReaderOptions {
	return &dton.ReaderOptions{Base64Prefix: o.prefix}
}

func (o *overlayT) runGet(cmd *cobra.Command, args []string) error {
	d, err := openDton(cmd, args[0], o.update, o.options())
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	for _, key := range args[1:] {
		v := d.Get(key)
		if v == nil {
			theLog.Warn("key not found", "key", key)
			fmt.Fprintln(stdout, "null")
			continue
		}
		fmt.Fprintln(stdout, v.String())
	}
	return nil
}

func (o *overlayT) runQuery(cmd *cobra.Command, args []string) error {
	d, err := openDton(cmd, args[0], o.update, o.options())
	if err != nil {
		return err
	}

	res := d.Query(args[1])
	if !res.Exists() {
		return errors.Newf("no match for %q", args[1])
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
	return nil
}

func (o *overlayT) runMerge(cmd *cobra.Command, args []string) error {
	a, err := openDton(cmd, args[0], "", o.options())
	if err != nil {
		return err
	}
	b, err := openDton(cmd, args[1], "", o.options())
	if err != nil {
		return err
	}

	v := a.Combine(b)
	if v == nil {
		return errors.New("both buffers are empty")
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bsm/dton"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// codecT implements the conversion and introspection commands.
type codecT struct {
	Commands []*cobra.Command

	// Configuration.
	flat   bool
	strict bool
	prefix string
	out    string
	update string
	indent string
	pretty bool
}

func newCodec() *codecT {
	c := &codecT{}

	encode := &cobra.Command{
		Use:   "encode [json file]",
		Short: "encode JSON as a SmDton buffer",
		Long: `
Encode a JSON document as a SmDton buffer. Nested objects and arrays become
nodes, nulls are dropped. With --flat, the document must be an object and
only its scalar fields are encoded.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runEncode,
	}
	encode.Flags().BoolVar(&c.flat, "flat", false, "encode a single flat map")
	encode.Flags().BoolVar(&c.strict, "strict", false, "fail on invalid node references")
	encode.Flags().StringVarP(&c.out, "out", "o", "", "output file (default stdout)")

	decode := &cobra.Command{
		Use:   "decode [buffer file]",
		Short: "decode a SmDton buffer as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.runDecode,
	}
	decode.Flags().StringVarP(&c.update, "update", "u", "", "update buffer to overlay")
	decode.Flags().BoolVarP(&c.pretty, "pretty", "p", false, "indent output")
	decode.Flags().StringVar(&c.indent, "indent", "  ", "indent used with --pretty")

	dump := &cobra.Command{
		Use:   "dump [buffer file]",
		Short: "print the layout of a SmDton buffer",
		Long: `
Print the header, node tables and entries of a SmDton buffer and verify
its layout.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runDump,
	}

	for _, cmd := range []*cobra.Command{encode, decode, dump} {
		cmd.Flags().StringVar(&c.prefix, "b64-prefix", dton.DefaultBase64Prefix, "base64 string marker")
	}
	c.Commands = []*cobra.Command{encode, decode, dump}
	return c
}

func (c *codecT) runEncode(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, firstArg(args))
	if err != nil {
		return err
	}

	o := &dton.BuilderOptions{
		Base64Prefix: c.prefix,
		Strict:       c.strict,
		SizeHint:     len(data),
	}

	var buf dton.Buffer
	if c.flat {
		m := dton.NewMapBuilder(o)
		if err := m.AddJSON(data); err != nil {
			return err
		}
		buf, err = m.Build()
	} else {
		var b *dton.Builder
		if b, err = dton.NewBuilderFromJSON(data, o); err != nil {
			return err
		}
		buf, err = b.Build()
	}
	if err != nil {
		return errors.Wrap(err, "build")
	}

	theLog.Debug("encoded", "json", len(data), "dton", len(buf))
	return writeOutput(cmd, c.out, buf)
}

func (c *codecT) runDecode(cmd *cobra.Command, args []string) error {
	d, err := openDton(cmd, firstArg(args), c.update, &dton.ReaderOptions{Base64Prefix: c.prefix})
	if err != nil {
		return err
	}

	var s string
	var ok bool
	if c.pretty {
		s, ok = d.Pretty(c.indent)
	} else if s, ok = d.Stringify(); ok {
		s += "\n"
	}
	if !ok {
		return errors.New("buffer has no root node")
	}

	_, err = io.WriteString(cmd.OutOrStdout(), s)
	return err
}

func (c *codecT) runDump(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, firstArg(args))
	if err != nil {
		return err
	}

	r, err := dton.NewReader(data, &dton.ReaderOptions{Base64Prefix: c.prefix})
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "size=%d width=%d nodes=%d keys=%d values=%d\n",
		len(data), r.Width(), r.NumNodes(), r.NumKeys(), r.NumValues())

	for id := 1; id <= r.NumNodes(); id++ {
		typ := r.NodeType(id)
		num := r.NumEntries(id)
		fmt.Fprintf(stdout, "node %d: %s, %d entries\n", id, typ, num)

		for i := 0; i < num; i++ {
			off := r.EntryOffset(id, i)
			var label string
			if typ == dton.TypeMap {
				key, _ := r.EntryKey(id, i)
				label = fmt.Sprintf("%q", key)
			} else {
				label = fmt.Sprintf("[%d]", i)
			}
			fmt.Fprintf(stdout, "  %-12s %-7s @%-6d %s\n", label, r.TypeAt(off), off, summarize(r, off))
		}
	}

	if err := r.Verify(); err != nil {
		return errors.Wrap(err, "verify")
	}
	fmt.Fprintln(stdout, "layout ok")
	return nil
}

// summarize renders the value at off, nodes as references.
func summarize(r *dton.Reader, off int) string {
	if id, ok := r.NodeIDAt(off); ok {
		return fmt.Sprintf("-> node %d", id)
	}

	v := r.ValueJSON(off)
	if v == nil {
		return "?"
	}

	s := v.String()
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return strings.ToValidUTF8(s, "?")
}

func firstArg(args []string) string {
	if len(args) != 0 {
		return args[0]
	}
	return ""
}

// binjson converts between JSON text and the binjson binary format and
// reports how well a document compresses under each supported codec.
//
//	binjson encode [-i in.json] [-o out.bjs] [--no-dict] [--no-coerce]
//	binjson decode [-i in.bjs] [-o out.json] [--format json|yaml] [--indent]
//	binjson stats  [-i in.json]
//	binjson hash   [-i in.json]
//	binjson compare [-i in.json]
//
// JSON input may carry comments and trailing commas.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/unkn0wn-root/binjson"
	slogadapter "github.com/unkn0wn-root/binjson/log/slog"
)

func main() {
	e := env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(os.Args[1:], e); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(args []string, e env) error
}

func commands() []command {
	return []command{
		{"encode", "convert JSON to binjson", runEncode},
		{"decode", "convert binjson to JSON or YAML", runDecode},
		{"stats", "show dictionary statistics for a JSON document", runStats},
		{"hash", "print the structural hash of a JSON document", runHash},
		{"compare", "compare encoded sizes across codecs", runCompare},
	}
}

func run(args []string, e env) error {
	if len(args) == 0 || isHelpFlag(args[0]) {
		printUsage(e.stderr)
		if len(args) == 0 {
			return errors.New("command required")
		}
		return nil
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(args[1:], e)
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'binjson --help' for usage.", args[0])
}

func isHelpFlag(s string) bool { return s == "-h" || s == "--help" || s == "help" }

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: binjson <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands() {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
}

// ioFlags are shared by every command.
type ioFlags struct {
	in      string
	out     string
	verbose bool
}

func newFlagSet(name string, f *ioFlags, withOutput bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet("binjson "+name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&f.in, "input", "i", "-", "input file (- for stdin)")
	if withOutput {
		fs.StringVarP(&f.out, "output", "o", "-", "output file (- for stdout)")
	}
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log codec activity to stderr")
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

func logger(f ioFlags, e env) binjson.Logger {
	if !f.verbose {
		return nil
	}
	h := slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slogadapter.Logger{L: slog.New(h)}
}

func runEncode(args []string, e env) error {
	var (
		f        ioFlags
		noDict   bool
		noCoerce bool
	)
	fs := newFlagSet("encode", &f, true)
	fs.BoolVar(&noDict, "no-dict", false, "disable the dictionary block")
	fs.BoolVar(&noCoerce, "no-coerce", false, "keep numeric strings as strings")
	if err := parse(fs, args); err != nil {
		return err
	}

	v, err := readJSON(f.in, e)
	if err != nil {
		return err
	}
	c := binjson.New(binjson.Options{
		Logger:                 logger(f, e),
		DisableDictionary:      noDict,
		DisableNumericCoercion: noCoerce,
	})
	out, err := c.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return writeOutput(f.out, out, e)
}

func runDecode(args []string, e env) error {
	var (
		f      ioFlags
		format string
		indent bool
	)
	fs := newFlagSet("decode", &f, true)
	fs.StringVar(&format, "format", "json", "output format: json or yaml")
	fs.BoolVar(&indent, "indent", false, "indent JSON output")
	if err := parse(fs, args); err != nil {
		return err
	}

	raw, err := readInput(f.in, e)
	if err != nil {
		return err
	}
	v, err := binjson.New(binjson.Options{Logger: logger(f, e)}).Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	var out []byte
	switch strings.ToLower(format) {
	case "json":
		out, err = renderJSON(v, indent)
	case "yaml", "yml":
		out, err = renderYAML(v)
	default:
		return fmt.Errorf("decode: unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return err
	}
	return writeOutput(f.out, out, e)
}

func runStats(args []string, e env) error {
	var f ioFlags
	if err := parse(newFlagSet("stats", &f, false), args); err != nil {
		return err
	}
	src, err := readInput(f.in, e)
	if err != nil {
		return err
	}
	v, err := parseJSONC(src)
	if err != nil {
		return err
	}
	_, st, err := binjson.New(binjson.Options{Logger: logger(f, e)}).EncodeWithStats(v)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "input bytes\t%d\n", len(src))
	fmt.Fprintf(tw, "encoded bytes\t%d\n", st.Bytes)
	fmt.Fprintf(tw, "dictionary entries\t%d\n", st.DictionaryEntries)
	fmt.Fprintf(tw, "references\t%d\n", st.References)
	if len(src) > 0 {
		fmt.Fprintf(tw, "ratio\t%.3f\n", float64(st.Bytes)/float64(len(src)))
	}
	return tw.Flush()
}

func runHash(args []string, e env) error {
	var f ioFlags
	if err := parse(newFlagSet("hash", &f, false), args); err != nil {
		return err
	}
	v, err := readJSON(f.in, e)
	if err != nil {
		return err
	}
	d := binjson.Hash(v)
	_, err = fmt.Fprintf(e.stdout, "%x\n", d[:])
	return err
}

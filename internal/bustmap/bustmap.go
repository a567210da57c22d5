// internal/bustmap/bustmap.go
package bustmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dalemusser/cachebuster/cachebuster"
	"github.com/dalemusser/cachebuster/version"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/pflag"
)

// Run is the entrypoint for the bustmap command. It builds the fingerprint
// map for a static folder and prints it, so a deploy can be checked for
// which URLs will change before it goes out.
//
// binName is the CLI name shown in usage text; args exclude the binary name.
// It returns a process exit code; callers should os.Exit(Run(...)).
func Run(binName string, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(binName, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	root := fs.String("root", "static", "static folder to fingerprint")
	exts := fs.StringSlice("ext", nil, "file suffixes to include (e.g. .css,.js); empty means all files")
	hashSize := fs.Int("hash-size", cachebuster.DefaultHashSize, "fingerprint length in hex characters")
	algorithm := fs.String("algorithm", cachebuster.DefaultAlgorithm, "digest algorithm (md5|sha256)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	showVersion := fs.Bool("version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [--root dir] [--ext .css,.js] [--hash-size n] [--algorithm md5|sha256] [--json]\n", binName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fs.Usage()
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", binName, version.String())
		return 0
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected argument %q\n\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	cfg, err := cachebuster.ParseConfig(cachebuster.Config{
		Extensions:    *exts,
		HashSize:      *hashSize,
		HashAlgorithm: *algorithm,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	m, err := cachebuster.BuildMap(*root, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *asJSON {
		return writeJSON(stdout, stderr, m.Entries())
	}
	fmt.Fprintln(stdout, renderTable(m.Entries(), cfg))
	return 0
}

func writeJSON(stdout, stderr io.Writer, entries []cachebuster.Entry) int {
	if entries == nil {
		entries = []cachebuster.Entry{}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func renderTable(entries []cachebuster.Entry, cfg cachebuster.Config) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Path", "Fingerprint"})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Path, e.Fingerprint})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(entries)),
		fmt.Sprintf("%s/%d", cfg.HashAlgorithm, cfg.HashSize),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// Command graltgen compiles a TOML build manifest into a table document:
// the grammar section becomes an LALR(1) parser table, the scanner section a
// set of minimized DFAs, both serialized as one JSON document.
package main

import (
	"os"
	"strings"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dvekon/gralt/lalr"
	"github.com/dvekon/gralt/scanner"
	"github.com/dvekon/gralt/table"
)

func main() {
	if newRootCmd().Execute() != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		out        string
		comment    string
		noDefaults bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "graltgen <manifest.toml>",
		Short:         "compile a grammar/lexical manifest into a table document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, e := newLogger(verbose)
			if e != nil {
				return e
			}
			defer log.Sync()
			return run(args[0], out, comment, noDefaults, log.Sugar())
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: manifest name with .json)")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "comment stored in the document")
	cmd.Flags().BoolVar(&noDefaults, "no-default-reductions", false, "keep full parser rows, no compaction")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func run(path, out, comment string, noDefaults bool, log *zap.SugaredLogger) error {
	m, e := loadManifest(path)
	if e != nil {
		return e
	}
	if comment == "" {
		comment = m.Comment
	}

	var parserTable *lalr.Table
	if m.Grammar != nil && len(m.Grammar.Rules) > 0 {
		g, e := m.Grammar.buildGrammar()
		if e != nil {
			return e
		}

		var conflicts []lalr.Conflict
		parserTable, conflicts, e = lalr.Build(g, lalr.Options{NoDefaultReductions: noDefaults})
		if e != nil {
			return e
		}
		for _, c := range conflicts {
			log.Warnw("conflict resolved",
				"state", c.State,
				"lookahead", g.Name(c.Lookahead),
				"kind", c.Kind.String(),
				"resolution", c.Resolution.String(),
				"declared", c.Declared,
			)
		}
		log.Debugw("parser table built",
			"states", len(parserTable.States), "rules", len(parserTable.Rules))
	}

	var scannerTable *scanner.Table
	if m.Scanner != nil && len(m.Scanner.Rules) > 0 {
		spec, e := m.Scanner.buildSpec()
		if e != nil {
			return e
		}
		scannerTable, e = scanner.Build(spec)
		if e != nil {
			return e
		}
		log.Debugw("scanner table built",
			"starts", len(scannerTable.Starts), "classes", scannerTable.NumClasses)
	}

	doc, e := table.New(scannerTable, parserTable)
	if e != nil {
		return e
	}
	doc.Comment = comment

	if out == "" {
		out = strings.TrimSuffix(path, ".toml") + ".json"
	}
	f, e := os.Create(out)
	if e != nil {
		return errors.Annotatef(e, "creating %s", out)
	}
	defer f.Close()

	if e = doc.Encode(f); e != nil {
		return e
	}
	log.Infow("table document written", "path", out)
	return nil
}

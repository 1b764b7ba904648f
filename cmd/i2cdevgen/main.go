// Command i2cdevgen compiles an I2C device type database into the lookup
// tables used by the bus scanner.
//
// Usage:
//
//	i2cdevgen [flags] <database.json|yaml> <output>
//
// The database maps keys to device type records, each naming the I2C
// addresses the device may answer on. The output holds the record table,
// the by-address index and the three scan priority lists, as a C++ header
// (default) or a Go source file.
//
// With -check nothing is written; the rendered tables are compared with the
// existing output (and manifest) instead.
//
// Exit codes:
//
//	0 - success
//	1 - usage, configuration, read or write error
//	2 - a record has an invalid address specification
//	3 - -check found the existing output out of date
//
// Nothing is written unless every artifact renders successfully.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtable"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
	"github.com/raftcore/i2cdevtypes/pkg/pollcfg"
	"github.com/raftcore/i2cdevtypes/pkg/tablegen"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitInvalidSpec  = 2
	exitStale        = 3
)

const usage = `Usage: i2cdevgen [flags] <database.json|yaml> <output>

Compile an I2C device type database into device lookup tables.

Flags:
`

// errStale is returned by check when an artifact differs from what would be
// generated.
var errStale = errors.New("out of date")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitCommandError
	}

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	a, err := render(cfg, logger)
	if err == nil {
		if cfg.Check {
			err = check(cfg, a)
		} else {
			err = commit(cfg, a, logger)
		}
	}
	if err != nil {
		var specErr *addrspec.InvalidSpecError
		switch {
		case errors.As(err, &specErr):
			fmt.Fprintf(stderr, "Invalid address range %s\n", specErr.Token)
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitInvalidSpec
		case errors.Is(err, errStale):
			fmt.Fprintf(stderr, "%v\n", err)
			return exitStale
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	verb := "generated"
	if cfg.Check {
		verb = "up to date"
	}
	fmt.Fprintf(stdout, "  %s %s\n", verb, cfg.Output)
	if cfg.Manifest != "" {
		fmt.Fprintf(stdout, "  %s %s\n", verb, cfg.Manifest)
	}
	return exitSuccess
}

// artifacts holds everything a run produces, rendered in memory.
type artifacts struct {
	tables   *devtable.Tables
	format   tablegen.Format
	src      []byte
	manifest []byte
}

func render(cfg Config, logger *slog.Logger) (*artifacts, error) {
	db, err := devtype.LoadDatabase(cfg.Input)
	if err != nil {
		return nil, err
	}

	catOpts := devtype.CatalogOptions{Logger: logger}
	if cfg.GenDecode {
		catOpts.DecodeLength = pollcfg.DecodeLength
	}
	tables, err := devtable.CompileDatabase(db, catOpts, devtable.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	gen, err := tablegen.NewGenerator(cfg.Format, tablegen.Options{
		GenDecode: cfg.GenDecode,
		GoPackage: cfg.GoPackage,
	})
	if err != nil {
		return nil, err
	}
	src, err := gen.Generate(tables)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", cfg.Output, err)
	}

	a := &artifacts{tables: tables, format: gen.Format(), src: src}
	if cfg.Manifest != "" {
		a.manifest, err = tablegen.NewManifest(tables, a.format, src).Encode()
		if err != nil {
			return nil, fmt.Errorf("encoding manifest: %w", err)
		}
	}
	return a, nil
}

func commit(cfg Config, a *artifacts, logger *slog.Logger) error {
	if err := writeFileAtomic(cfg.Output, a.src); err != nil {
		return err
	}
	if a.manifest != nil {
		if err := writeFileAtomic(cfg.Manifest, a.manifest); err != nil {
			return err
		}
	}
	logger.Info("generated device tables",
		"output", cfg.Output,
		"format", a.format,
		"records", a.tables.Catalog.Len(),
		"tableSet", a.tables.ID)
	return nil
}

// check compares the rendered artifacts with the files on disk.
func check(cfg Config, a *artifacts) error {
	existing, err := os.ReadFile(cfg.Output)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", cfg.Output, errStale)
		}
		return fmt.Errorf("reading %s: %w", cfg.Output, err)
	}
	if string(existing) != string(a.src) {
		return fmt.Errorf("%s: %w", cfg.Output, errStale)
	}

	if cfg.Manifest == "" {
		return nil
	}
	f, err := os.Open(cfg.Manifest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", cfg.Manifest, errStale)
		}
		return fmt.Errorf("opening %s: %w", cfg.Manifest, err)
	}
	defer f.Close()

	m, err := tablegen.ReadManifest(f)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Manifest, err)
	}
	if m.TableSetID != a.tables.ID.String() || m.Format != a.format || !m.Verify(existing) {
		return fmt.Errorf("%s: %w", cfg.Manifest, errStale)
	}
	return nil
}

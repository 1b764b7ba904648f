// Command i2cdev-query compiles a device type database in memory and
// answers questions about the resulting tables.
//
// Usage:
//
//	i2cdev-query [flags] <database.json|yaml>
//
// Without -exec an interactive shell is started. With -exec the given
// commands, separated by ';', are run in order and the command exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/raftcore/i2cdevtypes/cmd/i2cdev-query/interactive"
	"github.com/raftcore/i2cdevtypes/pkg/addrspec"
	"github.com/raftcore/i2cdevtypes/pkg/devtable"
	"github.com/raftcore/i2cdevtypes/pkg/devtype"
	"github.com/raftcore/i2cdevtypes/pkg/pollcfg"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitInvalidSpec  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("i2cdev-query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	genDecode := fs.Bool("gendecode", true, "Compute poll result lengths")
	exec := fs.String("exec", "", "Run these ';'-separated commands instead of the shell")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: i2cdev-query [flags] <database.json|yaml>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitCommandError
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "Error: invalid log level %q\n", *logLevel)
		return exitCommandError
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))

	tables, err := load(fs.Arg(0), *genDecode, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, addrspec.ErrInvalidAddressSpec) {
			return exitInvalidSpec
		}
		return exitCommandError
	}

	if *exec != "" {
		q := interactive.NewBatch(tables)
		for _, line := range strings.Split(*exec, ";") {
			if !q.Exec(stdout, line) {
				break
			}
		}
		return exitSuccess
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	q, err := interactive.New(tables)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	q.Run(ctx)
	return exitSuccess
}

func load(path string, genDecode bool, logger *slog.Logger) (*devtable.Tables, error) {
	db, err := devtype.LoadDatabase(path)
	if err != nil {
		return nil, err
	}
	catOpts := devtype.CatalogOptions{Logger: logger}
	if genDecode {
		catOpts.DecodeLength = pollcfg.DecodeLength
	}
	return devtable.CompileDatabase(db, catOpts, devtable.Options{Logger: logger})
}

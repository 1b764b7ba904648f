package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raftcore/i2cdevtypes/pkg/tablegen"
)

// Config holds the generator configuration. Values come from built-in
// defaults, then the optional config file, then command line flags.
type Config struct {
	Input  string `yaml:"-"`
	Output string `yaml:"-"`

	ConfigFile string `yaml:"-"`
	Check      bool   `yaml:"-"`

	GenDecode bool            `yaml:"genDecode"`
	Format    tablegen.Format `yaml:"format"`
	GoPackage string          `yaml:"goPackage"`
	Manifest  string          `yaml:"manifest"`
	LogLevel  string          `yaml:"logLevel"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		GenDecode: true,
		Format:    tablegen.FormatCPP,
		GoPackage: tablegen.DefaultGoPackage,
		LogLevel:  "info",
	}
}

// errUsage is returned when the command line is incomplete; usage has
// already been printed.
var errUsage = errors.New("usage")

// parseArgs builds the configuration from args.
func parseArgs(args []string, stderr io.Writer) (Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("i2cdevgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var flags Config
	fs.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.BoolVar(&flags.Check, "check", false, "Compare with existing output instead of writing it")
	fs.BoolVar(&flags.GenDecode, "gendecode", cfg.GenDecode, "Emit each record's poll result length function")
	fs.StringVar((*string)(&flags.Format), "format", string(cfg.Format), "Output format: cpp, go")
	fs.StringVar(&flags.GoPackage, "package", cfg.GoPackage, "Package name for -format go")
	fs.StringVar(&flags.Manifest, "manifest", "", "Also write a CBOR table manifest to this path")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return cfg, err
	}
	if len(positional) != 2 {
		fmt.Fprintln(stderr, "Error: database and output paths are required")
		fs.Usage()
		return cfg, errUsage
	}

	if flags.ConfigFile != "" {
		if err := loadConfigFile(flags.ConfigFile, &cfg); err != nil {
			return cfg, err
		}
		cfg.ConfigFile = flags.ConfigFile
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gendecode":
			cfg.GenDecode = flags.GenDecode
		case "format":
			cfg.Format = flags.Format
		case "package":
			cfg.GoPackage = flags.GoPackage
		case "manifest":
			cfg.Manifest = flags.Manifest
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		}
	})

	cfg.Check = flags.Check
	cfg.Input = positional[0]
	cfg.Output = positional[1]
	return cfg, nil
}

// parseInterspersed parses args with fs, accepting flags both before and
// after positional arguments. Everything following "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// loadConfigFile overlays the settings in path onto cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

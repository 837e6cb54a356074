package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/adrianplavka/typeswag/internal/openapi"
	"github.com/adrianplavka/typeswag/pkg/typeswag"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

const defaultConfig = "typeswag.yaml"

// usageError marks mistakes in how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		p := strings.TrimSpace(part)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	logger := baseLogger
	var logLevel string

	cmd := &cobra.Command{
		Use:           "typeswag",
		Short:         "typeswag builds Swagger 2.0 documents from annotated Go controllers",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			level, ok := pslog.ParseLevel(logLevel)
			if !ok {
				return usagef("invalid --log-level %q", logLevel)
			}
			logger = baseLogger.LogLevel(level)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(newSpecCommand(func() pslog.Logger { return logger }))
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func newSpecCommand(logger func() pslog.Logger) *cobra.Command {
	var (
		configPath string
		entry      string
		outDir     string
		ignore     string
		buildTags  string
		asYAML     bool
		asGo       bool
		check      bool
		validate   bool
	)
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Generate the Swagger document",
		Example: `
  # Use ./typeswag.yaml
  typeswag spec

  # Without a config file
  typeswag spec --entry ./api --out ./docs --yaml

  # Fail when the committed document is out of date
  typeswag spec --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"), entry != "")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if entry != "" {
				cfg.EntryFile = entry
			}
			if outDir != "" {
				cfg.Swagger.Output.Path = outDir
			}
			if flags.Changed("ignore") {
				cfg.Ignore = splitCSV(ignore)
			}
			if flags.Changed("build-tags") {
				cfg.BuildTags = splitCSV(buildTags)
			}
			if flags.Changed("yaml") {
				cfg.Swagger.Output.YAML = asYAML
				cfg.Swagger.Output.Filename = ""
			}
			if flags.Changed("go") {
				cfg.Swagger.Output.Go = asGo
			}
			if flags.Changed("validate") {
				cfg.Swagger.Validate = validate
			}
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return &usageError{err: err}
			}

			res, err := typeswag.New(cfg, typeswag.WithLogger(logger())).Generate(cmd.Context(), typeswag.Options{Check: check})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if check {
				fmt.Fprintln(out, "Swagger document is up to date")
				return nil
			}
			fmt.Fprintf(out, "Generated %d file(s)\n", len(res.Files))
			for _, f := range res.Files {
				fmt.Fprintln(out, " -", f)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", defaultConfig, "Path to the YAML configuration")
	f.StringVar(&entry, "entry", "", "Entry directory or package pattern (overrides entryFile)")
	f.StringVar(&outDir, "out", "", "Output directory (overrides swagger.output.path)")
	f.StringVar(&ignore, "ignore", "", "Comma-separated doublestar globs of files to skip")
	f.StringVar(&buildTags, "build-tags", "", "Comma-separated build tags")
	f.BoolVar(&asYAML, "yaml", false, "Write YAML instead of JSON")
	f.BoolVar(&asGo, "go", false, "Also write a Go source file embedding the document")
	f.BoolVar(&check, "check", false, "Check-only mode: do not write, fail if output differs")
	f.BoolVar(&validate, "validate", false, "Validate the document with kin-openapi")
	return cmd
}

// loadConfig reads the config file. A missing default file is tolerated when
// the entry point comes from flags.
func loadConfig(path string, explicit, haveEntry bool) (*typeswag.Config, error) {
	cfg, err := typeswag.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		if !haveEntry {
			return nil, usagef("no %s found; pass --config or --entry", path)
		}
		return typeswag.ParseConfig(nil)
	}
	return nil, err
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate an existing Swagger 2.0 document",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("validate takes exactly one file, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			if _, err := openapi.ValidateFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}
}

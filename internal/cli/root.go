// Package cli implements the sqlkit command line: rendering SQL templates
// for a dialect and running them against a configured database.
package cli

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlkit/config"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	EnvFile    string
	Dialect    string
	Format     string // "text" | "yaml"
	Debug      bool
	NoColor    bool

	fs afero.Fs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "yaml"}

// NewRootCommand creates the root command for the sqlkit CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{fs: fs}

	cmd := &cobra.Command{
		Use:   "sqlkit",
		Short: "sqlkit - SQL templates and statement shapes",
		Long: `Render SQL templates with positional, named and rule placeholders for a
target dialect, and run them against Postgres, MySQL or SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				color.NoColor = true
			}
			debug.InitWriter(opts.Debug, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: sqlkit.yaml in . or ~/.config/sqlkit)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with SQLKIT_* variables")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|yaml)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log compilation and execution to stderr")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// loadConfig resolves the configuration and applies flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	loadOpts := []config.Option{config.WithFs(o.fs), config.WithEnvFile(o.EnvFile)}
	if o.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithFile(o.ConfigFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, err
	}
	if o.Dialect != "" {
		cfg.Dialect = o.Dialect
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Debug && !o.Debug {
		o.Debug = true
		debug.Init(true)
	}
	return cfg, nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlkit/template"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	in := &InputOptions{}
	var inline bool

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Compile a SQL template and print the statement",
		Long: `Compile a SQL template against named arguments and print the SQL with the
placeholders of the target dialect, followed by the bound values.

  sqlkit render -d postgres -s id=7 'SELECT * FROM users WHERE id = :id'
  sqlkit render -f query.sql -a args.yaml --inline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, in, inline, cmd, args)
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&inline, "inline", false, "write values as literals instead of placeholders")

	return cmd
}

func runRender(opts *RootOptions, in *InputOptions, inline bool, cmd *cobra.Command, positional []string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	d, err := cfg.DialectValue()
	if err != nil {
		return err
	}
	text, err := in.template(opts.fs, cmd, positional)
	if err != nil {
		return err
	}
	src, err := in.source(opts.fs)
	if err != nil {
		return err
	}

	compileOpts := []template.CompileOption{template.WithPlaceholder(d.Placeholder)}
	if inline {
		compileOpts = append(compileOpts, template.WithInlineValues(d.RenderValue))
	}
	stmt, err := cfg.Compiler().CompileText(text, src, compileOpts...)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Statement(d.Name(), stmt)
}

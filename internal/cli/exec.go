package cli

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/sqlkit/database"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	in := &InputOptions{}

	cmd := &cobra.Command{
		Use:   "exec [template]",
		Short: "Run a statement against the configured database",
		Long: `Compile a SQL template for the configured driver and execute it, printing
the number of affected rows. The connection comes from the database section
of the config or the SQLKIT_DATABASE_* variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, in, cmd, args)
		},
	}

	in.register(cmd)
	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	in := &InputOptions{}

	cmd := &cobra.Command{
		Use:   "query [template]",
		Short: "Run a query and print the rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, in, cmd, args)
		},
	}

	in.register(cmd)
	return cmd
}

// connect opens the configured database. Callers close both values.
func connect(ctx context.Context, opts *RootOptions) (*database.Executor, *sqlx.DB, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return database.FromConfig(ctx, cfg.Database, database.WithCompiler(cfg.Compiler()))
}

func runExec(opts *RootOptions, in *InputOptions, cmd *cobra.Command, positional []string) error {
	text, err := in.template(opts.fs, cmd, positional)
	if err != nil {
		return err
	}
	src, err := in.source(opts.fs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exec, db, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()
	defer exec.Close()

	res, err := exec.ExecText(ctx, text, src)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Affected(n)
}

func runQuery(opts *RootOptions, in *InputOptions, cmd *cobra.Command, positional []string) error {
	text, err := in.template(opts.fs, cmd, positional)
	if err != nil {
		return err
	}
	src, err := in.source(opts.fs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exec, db, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()
	defer exec.Close()

	stmt, err := exec.Render(text, src)
	if err != nil {
		return err
	}

	var columns []string
	var rows []map[string]any
	err = exec.Each(ctx, stmt, func(r *sqlx.Rows) error {
		if columns == nil {
			cols, err := r.Columns()
			if err != nil {
				return err
			}
			columns = cols
		}
		row := map[string]any{}
		if err := r.MapScan(row); err != nil {
			return err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Rows(columns, rows)
}

package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/sqlkit/template"
	"github.com/Konsultn-Engineering/sqlkit/types"
)

var (
	sqlColor   = color.New(color.FgCyan, color.Bold)
	labelColor = color.New(color.FgHiBlack)
	okColor    = color.New(color.FgGreen)
)

// renderedArg is one bound value in yaml output.
type renderedArg struct {
	Ordinal int    `yaml:"ordinal"`
	Path    string `yaml:"path,omitempty"`
	Value   any    `yaml:"value"`
	Type    string `yaml:"type,omitempty"`
}

type renderedStatement struct {
	Dialect string        `yaml:"dialect"`
	SQL     string        `yaml:"sql"`
	Args    []renderedArg `yaml:"args"`
}

// OutputFormatter writes command results in the selected format.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) writeYAML(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Statement prints the SQL followed by its bound values.
func (f *OutputFormatter) Statement(dialectName string, stmt *template.Statement) error {
	out := renderedStatement{Dialect: dialectName, SQL: stmt.SQL, Args: []renderedArg{}}
	for _, v := range stmt.Values {
		arg := renderedArg{Ordinal: v.Ordinal, Path: v.Path, Value: v.Value}
		if v.SQLType != types.Unknown {
			arg.Type = v.SQLType.String()
		}
		out.Args = append(out.Args, arg)
	}
	if f.Format == "yaml" {
		return f.writeYAML(out)
	}

	sqlColor.Fprintln(f.Writer, out.SQL)
	for _, a := range out.Args {
		label := fmt.Sprintf("-- %d", a.Ordinal)
		if a.Path != "" {
			label += " " + a.Path
		}
		labelColor.Fprint(f.Writer, label)
		fmt.Fprintf(f.Writer, " = %v\n", a.Value)
	}
	return nil
}

// Affected reports the outcome of an exec.
func (f *OutputFormatter) Affected(n int64) error {
	if f.Format == "yaml" {
		return f.writeYAML(map[string]int64{"rows_affected": n})
	}
	okColor.Fprintf(f.Writer, "%d row(s) affected\n", n)
	return nil
}

// Rows prints query results as a table or a yaml list.
func (f *OutputFormatter) Rows(columns []string, rows []map[string]any) error {
	if f.Format == "yaml" {
		if rows == nil {
			rows = []map[string]any{}
		}
		return f.writeYAML(rows)
	}

	if len(columns) == 0 && len(rows) > 0 {
		for c := range rows[0] {
			columns = append(columns, c)
		}
		sort.Strings(columns)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, c := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, display(row[c]))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	labelColor.Fprintf(f.Writer, "(%d rows)\n", len(rows))
	return nil
}

func display(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

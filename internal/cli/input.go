package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/sqlkit/args"
)

// InputOptions are the flags shared by commands that compile a template.
type InputOptions struct {
	File     string
	ArgsFile string
	Set      []string
}

func (in *InputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.File, "file", "f", "", "read the template from a file; - reads stdin")
	cmd.Flags().StringVarP(&in.ArgsFile, "args", "a", "", "YAML file with named arguments")
	cmd.Flags().StringArrayVarP(&in.Set, "set", "s", nil, "named argument as key=value; the value is parsed as YAML")
}

// template returns the SQL text from the positional argument or --file.
func (in *InputOptions) template(fs afero.Fs, cmd *cobra.Command, positional []string) (string, error) {
	switch {
	case len(positional) > 0 && in.File != "":
		return "", fmt.Errorf("pass the template as an argument or with --file, not both")
	case len(positional) > 0:
		return positional[0], nil
	case in.File == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case in.File != "":
		b, err := afero.ReadFile(fs, in.File)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("no template given")
}

// source merges the --args file with the --set pairs; --set wins.
func (in *InputOptions) source(fs afero.Fs) (args.MapSource, error) {
	src := args.MapSource{}
	if in.ArgsFile != "" {
		b, err := afero.ReadFile(fs, in.ArgsFile)
		if err != nil {
			return nil, fmt.Errorf("read args: %w", err)
		}
		if err := yaml.Unmarshal(b, &src); err != nil {
			return nil, fmt.Errorf("decode args %s: %w", in.ArgsFile, err)
		}
	}
	for _, pair := range in.Set {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", pair, err)
		}
		src[key] = v
	}
	return src, nil
}

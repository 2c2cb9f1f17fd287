package cli

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	var require string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information. With --require the command fails unless the
binary satisfies the constraint, e.g. --require ">= 0.3, < 1.0".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if require != "" {
				if err := checkVersion(Version, require); err != nil {
					return err
				}
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if out.Format == "yaml" {
				return out.writeYAML(map[string]string{
					"version": Version,
					"commit":  GitCommit,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(out.Writer, "sqlkit version %s\n", Version)
			fmt.Fprintf(out.Writer, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out.Writer, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out.Writer, "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}

	cmd.Flags().StringVar(&require, "require", "", "fail unless the version satisfies this constraint")
	return cmd
}

func checkVersion(current, constraint string) error {
	v, err := version.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid version format: %w", err)
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("sqlkit %s does not satisfy %q", v, constraint)
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "partsplit",
		Short: "Split large line-oriented files into parts",
		Long: `Partsplit cuts a text file into a sequence of smaller part files
without ever splitting a line.

The input is read twice: once to count its lines, once to write them.
Inputs may be local files, http(s) URLs, s3:// or gs:// objects, and
may be gzip or zstd compressed.

Examples:
  # Split a log into 8 roughly equal parts next to it
  partsplit split /var/log/app.log --parts 8

  # Split a remote export into parts of 100000 lines
  partsplit split gs://exports/users.csv.gz --parts 1000 --lines-per-part 100000 -o ./parts

  # Show what a split produced
  partsplit inspect ./parts`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(newSplitCmd(g), newInspectCmd(g))
	return cmd
}

// logger returns a development logger when verbose output is enabled and a
// no-op logger otherwise.
func (g *globalFlags) logger() (*zap.Logger, error) {
	if !g.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

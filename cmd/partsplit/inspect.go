package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/spf13/cobra"

	"github.com/discochess/partsplit/internal/manifest"
)

// partFile matches part names produced by the default and padded namings.
var partFile = regexp.MustCompile(`\.part\d+$|^part\d+$`)

func newInspectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect DIR",
		Short: "Show the parts in a directory",
		Long: `List the part files in DIR with their sizes.

When DIR holds manifests written by 'partsplit split --manifest', each
manifest is checked against the parts on disk and the command fails if a
part is missing or has changed size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, g *globalFlags, dir string) error {
	out := cmd.OutOrStdout()

	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("directory %q: %w", dir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	manifests, err := manifest.Find(dir)
	if err != nil {
		return err
	}
	if len(manifests) > 0 {
		return inspectManifests(cmd, g, dir, manifests)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	var count int
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !partFile.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
		if g.verbose {
			fmt.Fprintf(out, "  %s\t%s\n", entry.Name(), formatBytes(info.Size()))
		}
	}

	if count == 0 {
		fmt.Fprintln(out, "No parts found.")
		return nil
	}
	fmt.Fprintf(out, "Directory:  %s\n", dir)
	fmt.Fprintf(out, "Parts:      %d\n", count)
	fmt.Fprintf(out, "Total size: %s\n", formatBytes(total))
	return nil
}

func inspectManifests(cmd *cobra.Command, g *globalFlags, dir string, paths []string) error {
	out := cmd.OutOrStdout()

	var failed int
	for _, path := range paths {
		m, err := manifest.Read(path)
		if err != nil {
			fmt.Fprintf(out, "ERROR: %s: %v\n", filepath.Base(path), err)
			failed++
			continue
		}

		sort.Slice(m.Parts, func(i, j int) bool { return m.Parts[i].Index < m.Parts[j].Index })

		fmt.Fprintf(out, "%s\n", filepath.Base(path))
		fmt.Fprintf(out, "  Source:     %s\n", m.Source)
		fmt.Fprintf(out, "  Split at:   %s\n", m.SplitAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(out, "  Lines:      %d\n", m.LineCount)
		fmt.Fprintf(out, "  Parts:      %d of %d requested\n", len(m.Parts), m.RequestedParts)
		fmt.Fprintf(out, "  Total size: %s\n", formatBytes(m.Bytes()))
		if g.verbose {
			for _, p := range m.Parts {
				fmt.Fprintf(out, "    %s\t%d lines\t%s\n", p.Name, p.Lines, formatBytes(p.Bytes))
			}
		}

		if err := manifest.Verify(dir, m); err != nil {
			fmt.Fprintf(out, "  ERROR: %v\n", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d manifests failed verification", failed)
	}
	return nil
}

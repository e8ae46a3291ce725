// =============================================================================
// Manifest to Scale - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the build of the
// converter and the manifests it accepts.
//
// COMMAND USAGE:
//   manifest2scale version [--short]
//
// OUTPUT:
//   Manifest to Scale 1.0.0
//   Commit:     3f2c1e9 (modified)
//   Build Date: 2025-07-08
//   Go Version: go1.24.0
//   Formats:    pdf, csv, xlsx
//   Companies:
//     ftg  PER-CO-FTG  Fresh To Go
//     ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/converter"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// Set at build time with ldflags:
//   go build -ldflags "-X 'github.com/BryceStandley/ManifestToScale/cmd.Version=1.2.0' \
//     -X 'github.com/BryceStandley/ManifestToScale/cmd.BuildDate=2025-07-08'" -o manifest2scale .

// Version is the release version.
var Version = "1.0.0"

// BuildDate is the date the binary was built.
var BuildDate = "unknown"

// shortVersion prints only the version number.
var shortVersion bool

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version and supported manifests",
	Long: `Display the release version, VCS commit, build date and Go runtime,
followed by the manifest formats and companies this build converts.`,
	Run: func(cmd *cobra.Command, args []string) {
		if shortVersion {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		writeVersion(cmd.OutOrStdout(), revision())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print only the version number")
}

// writeVersion prints the full version report to w.
func writeVersion(w io.Writer, commit string) {
	fmt.Fprintf(w, "Manifest to Scale %s\n", Version)
	if commit != "" {
		fmt.Fprintf(w, "Commit:     %s\n", commit)
	}
	fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "Formats:    %s, %s, %s\n", converter.FileTypePDF, converter.FileTypeCSV, converter.FileTypeXLSX)
	fmt.Fprintln(w, "Companies:")
	for _, c := range company.All() {
		fmt.Fprintf(w, "  %-4s %-11s %s\n", c.Slug(), c.Code(), c.DisplayName())
	}
}

// revision returns the short VCS revision stamped by the Go toolchain, with
// "(modified)" appended for a dirty tree. It is empty for builds without VCS
// information, such as test binaries.
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				modified = " (modified)"
			}
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return rev + modified
}

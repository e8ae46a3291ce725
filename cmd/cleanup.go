// =============================================================================
// Manifest to Scale - Cleanup Command
// =============================================================================
//
// This file defines the 'cleanup' command, which removes files older than
// retention_days from the input, output and archive directories.
//
// COMMAND USAGE:
//   manifest2scale cleanup [--days 7]
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BryceStandley/ManifestToScale/pkg/utils"
)

// retentionDays overrides retention_days from the configuration.
var retentionDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old files from the working directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge := mainConfig.Retention()
		if retentionDays > 0 {
			maxAge = time.Duration(retentionDays) * 24 * time.Hour
		}

		fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
		removed, err := fm.CleanOldFiles(maxAge)
		fmt.Printf("Removed %d file(s) older than %s\n", removed, maxAge)
		if err != nil {
			logger.Warn("some files could not be removed: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&retentionDays, "days", 0, "Retention in days (default from retention_days)")
}

// =============================================================================
// Manifest to Scale - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (manifest2scale)
//   ├── processCmd (manifest2scale process)
//   ├── serveCmd   (manifest2scale serve)
//   ├── cleanupCmd (manifest2scale cleanup)
//   └── versionCmd (manifest2scale version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BryceStandley/ManifestToScale/internal/config"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// mainConfig and logger are set by the root command's PersistentPreRunE.
var (
	mainConfig *config.MainConfig
	logger     *logging.ZapLogger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "manifest2scale",
	Short: "Manifest to Scale - Convert freight manifests into Scale WMS interface files",
	Long: `Manifest to Scale converts supplier freight manifests (PDF reports and
CSV/XLSX exports) into the Receipt and Shipment XML interface files consumed
by the Scale warehouse management system, plus a CSV mirror of the manifest.

Key Features:
  - PDF, CSV and XLSX manifests for every supported company
  - Duplicate order repair for hand edited exports
  - Processed manifest tracking so resends are not imported twice
  - Batch processing of an input directory or an HTTP upload API

Example Usage:
  manifest2scale process                      # Process all files in the input directory
  manifest2scale process --file m.pdf --company ftg
  manifest2scale serve --addr :8080           # Start the upload API
  manifest2scale cleanup                      # Remove files past retention`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initialize()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initialize loads the configuration and builds the logger.
func initialize() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Config{
		Level:       level,
		Format:      cfg.LogFormat,
		OutputPath:  cfg.LogFile,
		Development: verbose,
	})
	if err != nil {
		return err
	}

	mainConfig = cfg
	logger = l
	return nil
}

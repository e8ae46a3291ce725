// =============================================================================
// Manifest to Scale - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Manifest to Scale CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   manifest2scale process  - Convert all manifests in the input directory
//   manifest2scale serve    - Start the HTTP upload API
//   manifest2scale cleanup  - Remove files past the retention period
//   manifest2scale version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsers, validation, XML generation, storage, server
//   - pkg/       : Shared file management and output sinks
//
// =============================================================================

package main

import (
	"github.com/BryceStandley/ManifestToScale/cmd"
)

func main() {
	cmd.Execute()
}

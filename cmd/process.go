// =============================================================================
// Manifest to Scale - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch front end of the
// converter.
//
// COMMAND USAGE:
//   manifest2scale process [flags]
//
// FLAGS:
//   --dry-run : Parse, validate and generate without writing anything
//   --file    : Process a single file instead of scanning the input directory
//   --company : Company for every file, overriding company_patterns
//
// PROCESSING PIPELINE:
//   1. Load configuration and open the manifest store
//   2. Discover manifests (.pdf, .csv, .xlsx) in the input directory
//   3. For each file (concurrently, bounded by max_concurrency):
//      a. Resolve the company from the file name
//      b. Parse and validate the manifest
//      c. Generate the Receipt and Shipments XML and the CSV mirror
//      d. Write the output files
//   4. Archive processed files
//   5. Write the error log and summary report
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/converter"
	"github.com/BryceStandley/ManifestToScale/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun simulates processing without writing anything.
var dryRun bool

// filePath is a single file to process.
var filePath string

// companyName forces the company for every file.
var companyName string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert manifests in the input directory into Scale files",
	Long: `The process command scans the input directory for PDF, CSV and XLSX
manifests, resolves the company for each file and converts it into the
Receipt and Shipments XML interface files plus a CSV mirror.

Files are processed concurrently. A failure in one file does not affect the
others unless continue_on_error is false.

On successful processing:
  - The generated files are placed in the output directory
  - The manifest is moved to the input archive
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The manifest remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse, validate and generate without writing files, records or notifications",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a single manifest to process",
	)

	processCmd.Flags().StringVar(
		&companyName,
		"company",
		"",
		"Company for every file (name, code or slug: ftg, caf, ctg)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context) error {
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Manifest to Scale ===")

	forced := company.Unknown
	if companyName != "" {
		c, err := company.Parse(companyName)
		if err != nil {
			return err
		}
		forced = c
	}

	a, err := newApp(ctx, mainConfig, logger, dryRun, forced)
	if err != nil {
		return err
	}
	defer a.Close()

	conv := a.converter
	if dryRun {
		fmt.Println("Dry run: nothing will be written")
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = a.files.DiscoverManifests()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No manifests found in the input directory.")
		return nil
	}
	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := processFiles(ctx, conv, inputFiles, mainConfig.Processing.MaxConcurrency, mainConfig.ContinueOnError())

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	var errorEntries []utils.ErrorLogEntry
	for _, result := range results {
		summary.TotalFiles++
		name := filepath.Base(result.FilePath)

		switch {
		case result.Success:
			summary.SuccessfulFiles++
			summary.TotalOrders += result.TotalOrders
			summary.TotalCrates += result.TotalCrates
			if result.Repaired {
				summary.RepairedFiles++
			}
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:    result.FilePath,
				OutputFiles:  result.OutputFiles,
				ArchivePath:  result.ArchivePath,
				Company:      result.Company.DisplayName(),
				ManifestDate: result.ManifestDate.Format("02/01/2006"),
				ReceiptID:    result.ReceiptID,
				Orders:       result.TotalOrders,
				Crates:       result.TotalCrates,
				ProcessTime:  result.Stats.ProcessingTime,
			})
			fmt.Printf("  ✓ %s -> %s (%d orders, %d crates)\n", name, result.ReceiptID, result.TotalOrders, result.TotalCrates)
			for _, w := range result.Warnings {
				fmt.Printf("      ! %s\n", w)
			}

		case result.Status == converter.StatusAlreadyProcessed:
			summary.SkippedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile: result.FilePath, ErrorMessage: result.ErrorMessage, Status: string(result.Status),
			})
			fmt.Printf("  - %s: %s\n", name, result.ErrorMessage)

		default:
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile: result.FilePath, ErrorMessage: result.ErrorMessage, Status: string(result.Status),
			})
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     name,
				Status:       string(result.Status),
				ErrorMessage: result.ErrorMessage,
			})
			fmt.Printf("  ✗ %s: %s\n", name, result.ErrorMessage)
		}
	}

	// =========================================================================
	// STEP 5: WRITE LOGS AND PRINT SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:        %d\n", summary.TotalFiles)
	fmt.Printf("Successful:         %d\n", summary.SuccessfulFiles)
	fmt.Printf("Already processed:  %d\n", summary.SkippedFiles)
	fmt.Printf("Errors:             %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:       %s\n", summary.EndTime.Sub(summary.StartTime))

	if dryRun {
		return nil
	}

	if path, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write error log: %v", err)
	} else if path != "" {
		fmt.Printf("\nErrors have been logged to %s\n", path)
	}
	if path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write summary log: %v", err)
	} else {
		fmt.Printf("Summary written to %s\n", path)
	}

	if summary.FailedFiles > 0 && !mainConfig.ContinueOnError() {
		return fmt.Errorf("%d file(s) failed", summary.FailedFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// processFiles runs conv.Run for every file with at most limit files in
// flight. Without continueOnError no new file is started after a failure.
// Results keep the order of files; files never started are omitted.
func processFiles(ctx context.Context, conv *converter.Converter, files []string, limit int, continueOnError bool) []converter.Result {
	if limit <= 0 {
		limit = 1
	}

	var (
		wg      sync.WaitGroup
		failed  atomic.Bool
		sem     = make(chan struct{}, limit)
		results = make([]*converter.Result, len(files))
	)

	for i, file := range files {
		sem <- struct{}{}
		if ctx.Err() != nil || (!continueOnError && failed.Load()) {
			<-sem
			break
		}
		wg.Add(1)

		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			result := conv.Run(ctx, path)
			if !result.Success && result.Status != converter.StatusAlreadyProcessed {
				failed.Store(true)
			}
			results[i] = &result
		}(i, file)
	}
	wg.Wait()

	out := make([]converter.Result, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

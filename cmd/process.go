// =============================================================================
// Product Feed - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every product file
// in the input directory.
//
// COMMAND USAGE:
//   productfeed process [flags]
//
// FLAGS:
//   --dry-run  : Parse and evaluate without writing or archiving anything
//   --file     : Process only this file instead of scanning the input directory
//
// PROCESSING PIPELINE:
//   1. Discover product files in the input directory
//   2. For each file (concurrently, up to max_concurrency):
//      a. Parse every line into a product record
//      b. Evaluate raw and derived fields
//      c. Write the XML / XLSX output and the error log
//      d. Archive the processed files
//   3. Write the XSD, if configured
//   4. Write the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/popiel/code-exercise-services/internal/config"
	"github.com/popiel/code-exercise-services/internal/converter"
	"github.com/popiel/code-exercise-services/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun simulates processing without writing output files.
var dryRun bool

// filePath is the path to a specific file to process.
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process product files and convert them to XML",
	Long: `The process command scans the input directory for product files and
converts each of them to XML (and XLSX, if configured).

Processing is done concurrently. Each file is processed independently, and
errors in one file do not affect the processing of others.

On successful processing:
  - The generated files are placed in the output directory
  - Malformed lines that were skipped are listed in an error log
  - The original file is moved to the input archive

On error:
  - The line that stopped processing is written to an error log
  - The original file remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	// --dry-run flag: Simulate processing without writing output files.
	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and evaluate without writing or archiving anything",
	)

	// --file flag: Path to a specific file to process.
	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process only this file instead of scanning the input directory",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess discovers the input files, converts them and reports the outcome.
func runProcess(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	if !dryRun {
		if err := mainConfig.EnsureDirectories(); err != nil {
			return err
		}
	}

	inputFiles, err := discoverInputFiles(mainConfig)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No product files found in the input directory.")
		return nil
	}

	log.Info("Discovered input files", "count", len(inputFiles), "dry_run", dryRun)
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := processFiles(ctx, inputFiles, mainConfig)

	// =========================================================================
	// STEP 3: COLLECT RESULTS
	// =========================================================================

	summary.TotalFiles = len(inputFiles)
	for _, result := range results {
		summary.TotalLines += result.Stats.LinesRead
		summary.SkippedLines += result.Stats.LinesSkipped

		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalRecords += result.Stats.RecordsWritten
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFiles: result.OutputFiles,
				ArchivePath: result.ArchivePath,
				Lines:       result.Stats.LinesRead,
				Records:     result.Stats.RecordsWritten,
				Skipped:     result.Stats.LinesSkipped,
				ProcessTime: result.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  ✓ %s: %d record(s), %d skipped line(s)\n",
				filepath.Base(result.FilePath), result.Stats.RecordsWritten, result.Stats.LinesSkipped)
			for _, output := range result.OutputFiles {
				fmt.Fprintf(out, "      -> %s\n", output)
			}
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			log.Error("File failed", "source", filepath.Base(result.FilePath), "error", result.Error)
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 4: SCHEMA AND SUMMARY
	// =========================================================================

	if !dryRun {
		if mainConfig.WriteXSD && mainConfig.WantsOutput(config.OutputXML) {
			path, err := converter.WriteSchema(mainConfig.OutputDir)
			if err != nil {
				return err
			}
			log.Info("Wrote schema", "path", path)
		}

		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			log.Warn("Failed to write summary", "error", err)
		} else {
			log.Info("Wrote summary", "path", path)
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Records:         %d\n", summary.TotalRecords)
	fmt.Fprintf(out, "Skipped lines:   %d\n", summary.SkippedLines)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// discoverInputFiles returns the --file argument, or the files in the input
// directory matching the configured patterns.
func discoverInputFiles(mainConfig *config.MainConfig) ([]string, error) {
	if filePath != "" {
		return []string{filePath}, nil
	}
	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	return files.DiscoverInputFiles(mainConfig.FilePatterns...)
}

// processFiles runs one converter per file, at most MaxConcurrency at a
// time. Results come back in input order.
func processFiles(ctx context.Context, inputFiles []string, mainConfig *config.MainConfig) []converter.Result {
	results := make([]converter.Result, len(inputFiles))
	sem := make(chan struct{}, mainConfig.MaxConcurrency)

	var wg sync.WaitGroup
	for i, file := range inputFiles {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			conv, err := converter.New(path, mainConfig, log)
			if err != nil {
				results[i] = converter.Result{FilePath: path, Error: err}
				return
			}
			conv.DryRun = dryRun
			results[i] = conv.Run(ctx)
		}(i, file)
	}
	wg.Wait()

	return results
}

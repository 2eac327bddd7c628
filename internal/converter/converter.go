// =============================================================================
// Product Feed - Converter Module
// =============================================================================
//
// This module contains the per-file pipeline. It takes one fixed-width
// product file from the input directory to XML (and optionally XLSX) output.
//
// CONVERSION PIPELINE:
//   1. Open the input file
//   2. Stream it line by line through the product deserializer
//   3. Evaluate every raw and derived field of each record
//   4. Generate the XML document and, if configured, the XLSX report
//   5. Write the output files and the error log of skipped lines
//   6. Archive the processed files
//
// ERROR HANDLING:
//   Malformed lines follow the configured error policy. Under "skip" they are
//   logged and written to the error log; under "fail_fast" the first one
//   fails the file. Field evaluation errors (circular formulas, missing or
//   mistyped raw fields) always fail the file: they point at a broken field
//   catalog, not at the input.
//
// CONCURRENCY:
//   A Converter handles one file and shares no mutable state with other
//   converters, so files can be processed in parallel.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/popiel/code-exercise-services/internal/config"
	"github.com/popiel/code-exercise-services/internal/feed"
	"github.com/popiel/code-exercise-services/internal/fixedwidth"
	"github.com/popiel/code-exercise-services/internal/product"
	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/popiel/code-exercise-services/internal/xlsxreport"
	"github.com/popiel/code-exercise-services/internal/xmlwriter"
	"github.com/popiel/code-exercise-services/pkg/utils"
)

// SchemaFileName is the name of the XSD written next to the XML output.
const SchemaFileName = "products.xsd"

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles are the generated XML and XLSX files.
	// This is empty if processing failed or for a dry run.
	OutputFiles []string

	// ErrorLog is the path of the error log, if any line was rejected.
	ErrorLog string

	// ArchivePath is where the input file was moved, if archiving is on.
	ArchivePath string

	// Skipped lists the malformed lines passed over under the skip policy.
	Skipped []*feed.LineError

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// LinesRead is the number of input lines read, blank lines included.
	LinesRead int

	// RecordsWritten is the number of product records in the output.
	RecordsWritten int

	// LinesSkipped is the number of malformed lines passed over.
	LinesSkipped int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single product file.
type Converter struct {
	inputPath    string
	mainConfig   *config.MainConfig
	deserializer *product.Deserializer
	files        *utils.FileManager
	logger       *slog.Logger

	// Policy decides what happens to malformed lines. New sets it from the
	// configuration.
	Policy feed.Policy

	// DryRun parses and evaluates without writing or archiving anything.
	DryRun bool
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the product file to process.
//   - mainConfig: The main application configuration.
//   - logger: Destination of progress and skipped-line messages.
//
// RETURNS:
//   - A pointer to the Converter.
//   - An error if the configured encoding or error policy is unknown.
func New(inputPath string, mainConfig *config.MainConfig, logger *slog.Logger) (*Converter, error) {
	enc, err := fixedwidth.LookupEncoding(mainConfig.Encoding)
	if err != nil {
		return nil, err
	}
	policy, err := feed.ParsePolicy(mainConfig.ErrorPolicy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.ArchiveOnSuccess = mainConfig.Archive

	return &Converter{
		inputPath:    inputPath,
		mainConfig:   mainConfig,
		deserializer: product.NewDeserializer(enc),
		files:        files,
		logger:       logger.With("source", filepath.Base(inputPath)),
		Policy:       policy,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
//
// PROCESSING STEPS:
//   1. Read and evaluate every record, then write the error log
//   2. Generate and write the outputs
//   3. Archive the processed files
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{
		FilePath: c.inputPath,
		Success:  false,
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	c.logger.Info("Processing file", "path", c.inputPath, "policy", c.Policy.String())

	// =========================================================================
	// STEP 1: Read and evaluate records
	// =========================================================================

	rows, err := c.readRecords(ctx, &result)
	c.writeErrorLog(&result, err)
	if err != nil {
		result.Error = err
		return result
	}

	result.Stats.RecordsWritten = len(rows)
	c.logger.Debug("Evaluated records",
		"records", len(rows),
		"skipped", result.Stats.LinesSkipped,
		"lines", result.Stats.LinesRead)

	if c.DryRun {
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 2: Generate and write outputs
	// =========================================================================

	baseName := utils.GenerateOutputFileName(c.mainConfig.UUIDFormat, map[string]string{
		"source": utils.SourceName(c.inputPath),
	}, "")

	if c.mainConfig.WantsOutput(config.OutputXML) {
		path, err := c.writeXML(baseName, rows)
		if err != nil {
			result.Error = fmt.Errorf("failed to write XML: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, path)
		c.logger.Info("Wrote output", "path", path)
	}

	if c.mainConfig.WantsOutput(config.OutputXLSX) {
		path := filepath.Join(c.mainConfig.OutputDir, baseName+".xlsx")
		if err := xlsxreport.Write(path, product.Catalog, rows, result.Skipped); err != nil {
			result.Error = fmt.Errorf("failed to write XLSX report: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, path)
		c.logger.Info("Wrote output", "path", path)
	}

	// =========================================================================
	// STEP 3: Archive
	// =========================================================================

	if c.mainConfig.Archive {
		if err := c.archiveFiles(&result); err != nil {
			c.logger.Warn("Failed to archive files", "error", err)
		}
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readRecords streams the input file and evaluates every record.
func (c *Converter) readRecords(ctx context.Context, result *Result) ([]xmlwriter.Row, error) {
	file, err := os.Open(c.inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := feed.NewReader(file, filepath.Base(c.inputPath), c.deserializer, feed.Options{
		Policy: c.Policy,
		Logger: c.logger,
	})
	defer func() {
		result.Skipped = reader.Skipped()
		result.Stats.LinesSkipped = len(result.Skipped)
		result.Stats.LinesRead = reader.Line()
	}()

	var rows []xmlwriter.Row
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := product.Catalog.Evaluate(reader.Record())
		if err != nil {
			c.logger.Error("Field evaluation failed",
				"line", reader.Line(),
				"error", err,
				"engine", record.IsEngineError(err))
			return nil, fmt.Errorf("failed to evaluate line %d: %w", reader.Line(), err)
		}
		rows = append(rows, xmlwriter.Row{Line: reader.Line(), Fields: fields})
	}

	if err := reader.Err(); err != nil {
		var lineErr *feed.LineError
		if errors.As(err, &lineErr) {
			c.logger.Error("Malformed line", "line", lineErr.Line, "error", lineErr.Err)
			return nil, fmt.Errorf("failed to parse: %w", err)
		}
		return nil, err
	}

	return rows, nil
}

// writeXML generates the XML document and writes it to the output directory.
func (c *Converter) writeXML(baseName string, rows []xmlwriter.Row) (string, error) {
	options := xmlwriter.DefaultGenerateOptions()
	options.RootAttributes["source"] = filepath.Base(c.inputPath)

	xmlDoc, err := xmlwriter.GenerateWithOptions(rows, options)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(c.mainConfig.OutputDir, baseName+".xml")
	if err := os.WriteFile(outputPath, xmlDoc, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

// writeErrorLog records skipped lines, plus the line that stopped a
// fail-fast run, in the output directory.
func (c *Converter) writeErrorLog(result *Result, runErr error) {
	if c.DryRun {
		return
	}

	lineErrors := append([]*feed.LineError(nil), result.Skipped...)
	var failed *feed.LineError
	if errors.As(runErr, &failed) {
		lineErrors = append(lineErrors, failed)
	}

	entries := make([]utils.ErrorLogEntry, 0, len(lineErrors))
	for _, lineErr := range lineErrors {
		entries = append(entries, errorLogEntry(lineErr))
	}

	path, err := utils.WriteErrorLog(entries, c.mainConfig.OutputDir, c.inputPath)
	if err != nil {
		c.logger.Warn("Failed to write error log", "error", err)
		return
	}
	result.ErrorLog = path
}

// errorLogEntry describes a line error with whatever field detail it carries.
func errorLogEntry(lineErr *feed.LineError) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     lineErr.Source,
		ErrorType:    strings.TrimPrefix(fmt.Sprintf("%T", lineErr.Err), "*"),
		ErrorMessage: lineErr.Err.Error(),
		LineNumber:   lineErr.Line,
	}

	var (
		number      *fixedwidth.NumberFormatError
		flag        *fixedwidth.FlagFormatError
		text        *fixedwidth.TextEncodingError
		conflicting *product.ConflictingPriceError
		forX        *product.InvalidForXError
		missing     *product.MissingPriceError
	)
	switch {
	case errors.As(lineErr, &number):
		entry.FieldName, entry.FieldValue = number.Field, number.Value
	case errors.As(lineErr, &flag):
		entry.FieldName, entry.FieldValue = flag.Field, string(flag.Char)
	case errors.As(lineErr, &text):
		entry.FieldName, entry.FieldValue = text.Field, text.Value
	case errors.As(lineErr, &conflicting):
		entry.FieldName = conflicting.Group + " price"
	case errors.As(lineErr, &forX):
		entry.FieldName = forX.Group + " for X"
		entry.FieldValue = fmt.Sprintf("%d", forX.ForX)
	case errors.As(lineErr, &missing):
		entry.FieldName = missing.Group + " price"
	}

	return entry
}

// archiveFiles moves the input file and copies the outputs to the archives.
func (c *Converter) archiveFiles(result *Result) error {
	archivePath, err := c.files.ArchiveInputFile(c.inputPath)
	if err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	result.ArchivePath = archivePath
	c.logger.Debug("Archived input file", "path", archivePath)

	for _, outputPath := range result.OutputFiles {
		archived, err := c.files.ArchiveOutputFile(outputPath)
		if err != nil {
			return fmt.Errorf("failed to archive output file: %w", err)
		}
		c.logger.Debug("Archived output file", "path", archived)
	}

	return nil
}

// WriteSchema writes the XSD of the XML output to dir.
func WriteSchema(dir string) (string, error) {
	xsd, err := xmlwriter.GenerateXSD(product.Catalog)
	if err != nil {
		return "", fmt.Errorf("failed to generate XSD: %w", err)
	}
	path := filepath.Join(dir, SchemaFileName)
	if err := os.WriteFile(path, xsd, 0644); err != nil {
		return "", fmt.Errorf("failed to write XSD: %w", err)
	}
	return path, nil
}

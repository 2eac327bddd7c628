// =============================================================================
// Product Feed - Main Entry Point
// =============================================================================
//
// This is the main entry point for the productfeed CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   productfeed process     - Convert all product files in the input directory
//   productfeed check FILE  - Report malformed lines without writing output
//   productfeed show FILE   - Print every raw and derived field of each product
//   productfeed version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/                  : CLI command definitions (Cobra)
//   - internal/record       : Field descriptors, record store, derivation engine
//   - internal/money        : Prices in centicents
//   - internal/fixedwidth   : Fixed-width slicing and field converters
//   - internal/product      : Product field catalog and line deserializer
//   - internal/feed         : Line-by-line reader with error policy
//   - internal/converter    : Per-file pipeline
//   - internal/xmlwriter    : XML and XSD output
//   - internal/xlsxreport   : XLSX report
//   - internal/config       : Configuration loading
//   - internal/logger       : Structured logging
//   - pkg/utils             : File discovery, archival and run logs
//
// =============================================================================

package main

import (
	"github.com/popiel/code-exercise-services/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}

// =============================================================================
// Product Feed - Show Command
// =============================================================================
//
// This file defines the 'show' command, which prints every raw and derived
// field of the products in a file.
//
// COMMAND USAGE:
//   productfeed show FILE [--line N]
//
// OUTPUT:
//   == items.txt:1
//   product_id                  raw      80000001
//   description                 raw      Kimchi-flavored white rice
//   ...
//   regular_display_price       derived  $5.67
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/popiel/code-exercise-services/internal/feed"
	"github.com/popiel/code-exercise-services/internal/fixedwidth"
	"github.com/popiel/code-exercise-services/internal/product"
	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/spf13/cobra"
)

// showLine limits the output to one line number. Zero shows every line.
var showLine int

// showCmd represents the 'show' command.
var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print every field of the products in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		enc, err := fixedwidth.LookupEncoding(mainConfig.Encoding)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		source := filepath.Base(path)
		reader := feed.NewReader(file, source, product.NewDeserializer(enc), feed.Options{Logger: log})

		out := cmd.OutOrStdout()
		shown := 0
		for reader.Next() {
			if showLine > 0 && reader.Line() != showLine {
				continue
			}
			fields, err := product.Catalog.Evaluate(reader.Record())
			if err != nil {
				return fmt.Errorf("%s:%d: %w", source, reader.Line(), err)
			}
			if err := printFields(out, fmt.Sprintf("%s:%d", source, reader.Line()), fields); err != nil {
				return err
			}
			shown++
		}
		if err := reader.Err(); err != nil {
			return err
		}

		for _, lineErr := range reader.Skipped() {
			if showLine == 0 || lineErr.Line == showLine {
				fmt.Fprintln(cmd.ErrOrStderr(), lineErr.Error())
			}
		}
		if showLine > 0 && shown == 0 {
			return fmt.Errorf("%s: no product on line %d", source, showLine)
		}
		return nil
	},
}

// printFields writes one record as an aligned name / kind / value table.
func printFields(out io.Writer, title string, fields []record.FieldValue) error {
	fmt.Fprintf(out, "== %s\n", title)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, field := range fields {
		kind := "raw"
		if field.Derived {
			kind = "derived"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", field.Name, kind, record.FormatValue(field.Value))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntVar(
		&showLine,
		"line",
		0,
		"Show only the product on this line number",
	)
}

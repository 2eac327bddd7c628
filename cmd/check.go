// =============================================================================
// Product Feed - Check Command
// =============================================================================
//
// This file defines the 'check' command, which validates product files
// without writing any output.
//
// COMMAND USAGE:
//   productfeed check FILE...
//
// OUTPUT:
//   items.txt:4: field Regular Singular Price: "0000O300" is not an integer
//   items.txt: 10 line(s), 9 record(s), 1 malformed
//
// Every malformed line is reported regardless of the configured error
// policy. The command exits non-zero if any line or file failed.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/popiel/code-exercise-services/internal/converter"
	"github.com/popiel/code-exercise-services/internal/feed"
	"github.com/spf13/cobra"
)

// checkCmd represents the 'check' command.
var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Report malformed lines without writing output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		bad := 0

		for _, path := range args {
			conv, err := converter.New(path, mainConfig, log)
			if err != nil {
				return err
			}
			conv.DryRun = true
			conv.Policy = feed.Skip

			result := conv.Run(cmd.Context())
			for _, lineErr := range result.Skipped {
				fmt.Fprintln(out, lineErr.Error())
			}
			if result.Error != nil {
				fmt.Fprintf(out, "%s: %v\n", filepath.Base(path), result.Error)
				bad++
				continue
			}

			fmt.Fprintf(out, "%s: %d line(s), %d record(s), %d malformed\n",
				filepath.Base(path), result.Stats.LinesRead, result.Stats.RecordsWritten, result.Stats.LinesSkipped)
			if len(result.Skipped) > 0 {
				bad++
			}
		}

		if bad > 0 {
			return fmt.Errorf("%d of %d file(s) have errors", bad, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

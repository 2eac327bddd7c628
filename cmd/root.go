// =============================================================================
// Product Feed - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (productfeed)
//   ├── processCmd (productfeed process)
//   ├── checkCmd   (productfeed check)
//   ├── showCmd    (productfeed show)
//   └── versionCmd (productfeed version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the .env file named by --env-file, if present
//   2. Loads config.yaml (or --config) and applies PRODUCTFEED_* overrides
//   3. Builds the logger; --verbose forces debug level
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/popiel/code-exercise-services/internal/config"
	"github.com/popiel/code-exercise-services/internal/logger"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose enables verbose logging when set to true.
var verbose bool

// mainConfig and log are set up by the root command before a subcommand runs.
var (
	mainConfig *config.MainConfig
	log        *slog.Logger
	closeLog   = func() error { return nil }
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "productfeed",
	Short: "Product Feed - Turn fixed-width retail product files into XML",
	Long: `Product Feed reads fixed-width retail product files, one 142-byte line per
product, and turns every line into a product record with its raw fields and
the values derived from them: display prices, per-item calculator prices,
unit of measure and tax rate.

Key Features:
  - Strict per-field validation with line-numbered error reports
  - Skip-and-continue or fail-fast handling of malformed lines
  - XML, XSD and XLSX output
  - Concurrent processing of input files
  - Automatic file archival on successful processing

Example Usage:
  productfeed process                    # Process all files in the input directory
  productfeed process --config ./my.yaml # Use a custom configuration file
  productfeed check items.txt            # Report malformed lines without writing output
  productfeed show items.txt --line 3    # Print every field of one product`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// setup loads the environment, the configuration and the logger.
func setup(cmd *cobra.Command) error {
	envExplicit := cmd.Flags().Changed("env-file")
	if err := config.LoadEnvFile(envFile, envExplicit); err != nil {
		return err
	}

	loaded, err := config.LoadMainConfig(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		loaded.LogLevel = "debug"
	}

	l, closeFn, err := logger.New(logger.Options{
		Level:  loaded.LogLevel,
		Format: loaded.LogFormat,
		File:   loaded.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	mainConfig, log, closeLog = loaded, l, closeFn
	log.Debug("Configuration loaded",
		"config", cfgFile,
		"input_dir", mainConfig.InputDir,
		"output_dir", mainConfig.OutputDir,
		"error_policy", mainConfig.ErrorPolicy,
		"encoding", mainConfig.Encoding)
	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// --config flag: Allows the user to specify a custom configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the main configuration file",
	)

	// --env-file flag: KEY=VALUE file loaded into the environment.
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to an optional .env file with PRODUCTFEED_* overrides",
	)

	// --verbose flag: Enables verbose/debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

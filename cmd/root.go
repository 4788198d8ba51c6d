// =============================================================================
// Avisos Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (avisos)
//   ├── generateCmd   (avisos generate)
//   ├── validateCmd   (avisos validate)
//   ├── activitiesCmd (avisos activities)
//   └── versionCmd    (avisos version)
//
// The root command owns the global flags (--config, --verbose) and the
// logger setup shared by the subcommands.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/avisos/internal/config"
	"github.com/ginjaninja78/avisos/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging regardless of log_level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "avisos",
	Short: "Avisos Generator - Build UIF/SAT anti-money-laundering avisos",

	Long: `Avisos Generator turns the monthly operation exports of an obligated
subject into the XML avisos required for each vulnerable activity.

Key Features:
  - 15 vulnerable activities with their regulator codes and schemas
  - Column mapping and transformation rules per activity export (CSV/XLSX)
  - Zero-operations reports ("informe en ceros")
  - Gaming reports split into deposits and withdrawals
  - Optional publication to a file store or S3 with generation history

Example Usage:
  avisos generate --period 202403                      # Every export in the input directory
  avisos generate --activity inmuebles --period 202403 # One activity
  avisos generate --activity vehiculos --period 202403 --zero
  avisos validate                                      # Check configuration only`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and runs it. It is
// called by main.main().
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

	rootCmd.SilenceUsage = true
}

// newLogger builds the run logger from the main configuration.
func newLogger(cfg *config.MainConfig, debug bool) logger.Logger {
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	return logger.NewStructured(level, cfg.LogFormat)
}

// =============================================================================
// Avisos Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   avisos generate    - Generate the avisos of a reporting period
//   avisos validate    - Validate configuration files without processing
//   avisos activities  - List the supported vulnerable activities
//   avisos version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/         : CLI command definitions (Cobra)
//   - internal/    : generation engine, ingestion, storage and history
//   - pkg/         : shared file utilities
//   - activities/  : one YAML file per activity export layout
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/avisos/cmd"
)

func main() {
	cmd.Execute()
}

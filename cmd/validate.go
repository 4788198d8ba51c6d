// =============================================================================
// Avisos Generator - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   avisos validate
//
// Loads the main configuration, every activity layout and the subject
// profile, and reports every problem found without reading any export.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/avisos/internal/config"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/ingest"
	"github.com/ginjaninja78/avisos/internal/registry"
	"github.com/ginjaninja78/avisos/internal/types"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration files without processing",
	Long: `The validate command checks the main configuration, every activity
layout in the activities directory and the subject profile.

A layout is valid when its activity is supported, every mapped and static
field is known for that activity, its transformation rules compile and its
file patterns are well formed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer) error {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	fmt.Fprintf(out, "✓ main configuration (%s)\n", cfgFile)

	failures := 0
	if _, err := config.LoadSubjectProfile(mainConfig.SubjectProfile); err != nil {
		failures++
		fmt.Fprintf(out, "✗ subject profile: %v\n", err)
	} else {
		fmt.Fprintf(out, "✓ subject profile (%s)\n", mainConfig.SubjectProfile)
	}

	configs, err := config.LoadActivityConfigs(mainConfig.ActivitiesDir)
	if err != nil {
		return fmt.Errorf("failed to load activity configs: %w", err)
	}

	problems := checkActivityConfigs(registry.Default(), configs)
	for _, activity := range sortedActivities(configs) {
		cfg := configs[activity]
		if err, bad := problems[activity]; bad {
			failures++
			fmt.Fprintf(out, "✗ %s (%s): %v\n", activity, filepath.Base(cfg.Source), err)
			continue
		}
		fmt.Fprintf(out, "✓ %s (%s)\n", activity, filepath.Base(cfg.Source))
	}

	if failures > 0 {
		return fmt.Errorf("%d configuration problem(s) found", failures)
	}
	fmt.Fprintln(out, "\nConfiguration is valid.")
	return nil
}

// checkActivityConfigs returns the first problem of every invalid layout.
func checkActivityConfigs(reg *registry.Registry, configs map[types.ActivityType]*config.ActivityConfig) map[types.ActivityType]error {
	problems := make(map[types.ActivityType]error)
	for activity, cfg := range configs {
		if !reg.Has(activity) {
			problems[activity] = apperrors.NewUnknownActivityError(string(activity))
			continue
		}
		if _, err := ingest.NewBuilder(cfg); err != nil {
			problems[activity] = err
			continue
		}
		for _, pattern := range cfg.FileMatchingPatterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				problems[activity] = apperrors.Newf(apperrors.ErrCodeInvalidConfig,
					"bad file pattern %q: %v", pattern, err)
				break
			}
		}
	}
	return problems
}

func sortedActivities(configs map[types.ActivityType]*config.ActivityConfig) []types.ActivityType {
	keys := make([]types.ActivityType, 0, len(configs))
	for k := range configs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

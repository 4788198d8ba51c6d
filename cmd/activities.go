package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/avisos/internal/registry"
)

// activitiesCmd lists the supported vulnerable activities.
var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List the supported vulnerable activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listActivities(cmd.OutOrStdout(), registry.Default())
	},
}

func init() {
	rootCmd.AddCommand(activitiesCmd)
}

func listActivities(out io.Writer, reg *registry.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTIVITY\tCODE\tNAMESPACE\tSCHEMA\tDESCRIPTION")
	for _, d := range reg.Descriptors() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Activity, d.RegulatorCode, d.Namespace, d.SchemaFile, d.Description)
	}
	return w.Flush()
}

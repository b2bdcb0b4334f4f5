// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/landreport/internal/assemble"
	"github.com/pdiddy/landreport/internal/render"
	"github.com/pdiddy/landreport/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check KPI completeness without composing a report",
	Long: `Check loads and validates every fragment a report type needs and lists
the KPIs found and missing per module. No document is written and no run is
recorded. The command fails when a critical KPI is missing.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("context", "", "analysis context ID (required)")
	checkCmd.Flags().String("type", "", "report type, or \"all\" (required)")
	checkCmd.Flags().Bool("skip-fingerprints", false, "do not cross-check fragment fingerprints")
	_ = checkCmd.MarkFlagRequired("context")
	_ = checkCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	contextID, _ := cmd.Flags().GetString("context")
	typeArg, _ := cmd.Flags().GetString("type")

	ids, err := reportTypesFromFlag(typeArg)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	var incomplete int
	for _, id := range ids {
		a, err := assemble.New(id, s, render.New(), assemblerOptions(cmd)...)
		if err != nil {
			return err
		}
		c, err := a.ValidateCompleteness(context.Background(), contextID)
		if err != nil {
			return err
		}
		printCompleteness(c)
		if !c.OK() {
			incomplete++
		}
	}
	if incomplete > 0 {
		return fmt.Errorf("%d report type(s) missing critical KPIs: %w", incomplete, assemble.ErrCriticalKPIMissing)
	}
	return nil
}

func printCompleteness(c *assemble.Completeness) {
	status := types.StatusPass
	switch {
	case !c.OK():
		status = types.StatusFail
	case len(c.SoftMissing) > 0:
		status = types.StatusWarn
	}
	fmt.Fprintf(os.Stdout, "%s  %s  %s\n", status, c.ReportType, c.ContextID)
	fmt.Fprintf(os.Stdout, "%-4s  %-40s  %s\n", "Mod", "Found", "Missing")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 72))
	for _, o := range c.Modules {
		var missing []string
		for _, item := range o.CriticalMissing {
			missing = append(missing, item+" (critical)")
		}
		missing = append(missing, o.SoftMissing...)
		found := strings.Join(o.Record.Found, ",")
		if len(found) > 40 {
			found = found[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4s  %-40s  %s\n", o.Module, found, strings.Join(missing, ", "))
	}
	fmt.Fprintln(os.Stdout)
}

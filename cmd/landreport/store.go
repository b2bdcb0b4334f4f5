// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/landreport/internal/store"
	"github.com/pdiddy/landreport/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the module result store (import, show, export, runs)",
	Long: `Store manages the local SQLite database of module results that reports
are assembled from, and the audit trail of assembly runs.`,
}

// --- import subcommand ---

var storeImportCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Import module results from YAML files",
	Long: `Import reads every *.yaml file in DIR. Each file holds one analysis
context and the results of any number of modules. Results whose summary is
unchanged since the last import are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreImport,
}

func runStoreImport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Import(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d result(s) failed import", summary.Failed)
	}
	return nil
}

// --- show subcommand ---

var storeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored module results",
	RunE:  runStoreShow,
}

func runStoreShow(cmd *cobra.Command, args []string) error {
	contextID, _ := cmd.Flags().GetString("context")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.List(context.Background(), contextID)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No results stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-4s  %-16s  %s\n", "Context", "Mod", "Fingerprint", "Summary")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-20s  %-4s  %-16s  %s\n",
			r.ContextID, r.ModuleID, r.Fingerprint, summaryLine(r.Summary, 54))
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// summaryLine renders summary as sorted key=value pairs, truncated to width.
func summaryLine(summary map[string]any, width int) string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, summary[k])
	}
	line := strings.Join(parts, " ")
	if len(line) > width {
		line = line[:width-3] + "..."
	}
	return line
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored results to YAML or JSON",
	Long: `Export writes stored module results. YAML export writes one file per
context into --dir in the layout import reads; JSON export writes a single
file including fingerprints.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	contextID, _ := cmd.Flags().GetString("context")
	dir, _ := cmd.Flags().GetString("dir")

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	switch format {
	case "yaml", "":
		paths, err := s.ExportYAML(context.Background(), dir, contextID)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("Exported to", p)
		}
	case "json":
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
		path := filepath.Join(dir, "export.json")
		if err := s.ExportJSON(context.Background(), path, contextID); err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded assembly runs, newest first",
	RunE:  runStoreRuns,
}

func runStoreRuns(cmd *cobra.Command, args []string) error {
	contextID, _ := cmd.Flags().GetString("context")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(context.Background(), contextID, limit)
	if err != nil {
		return err
	}
	return formatRuns(runs, jsonOutput)
}

func formatRuns(runs []store.RunRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-5s  %-22s  %-16s  %s\n", "Generated", "Stat", "Report", "Context", "Missing")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		missing := append(append([]string(nil), r.CriticalMissing...), r.SoftMissing...)
		fmt.Fprintf(os.Stdout, "%-20s  %-5s  %-22s  %-16s  %s\n",
			r.GeneratedAt.Format("2006-01-02 15:04:05"), statusLabel(r.Status), r.ReportType, r.ContextID,
			strings.Join(missing, ","))
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

func statusLabel(s types.QualityStatus) string {
	if s == "" {
		return "?"
	}
	return string(s)
}

func init() {
	storeShowCmd.Flags().String("context", "", "limit to one analysis context")
	storeShowCmd.Flags().Bool("json", false, "output results as JSON")

	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("context", "", "limit to one analysis context")
	storeExportCmd.Flags().String("dir", "export", "directory to write exports into")

	storeRunsCmd.Flags().String("context", "", "limit to one analysis context")
	storeRunsCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	storeRunsCmd.Flags().Bool("json", false, "output runs as JSON")

	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeShowCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeRunsCmd)

	rootCmd.AddCommand(storeCmd)
}

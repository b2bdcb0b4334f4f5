// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/landreport/internal/assemble"
	"github.com/pdiddy/landreport/internal/render"
	"github.com/pdiddy/landreport/internal/reporttype"
	"github.com/pdiddy/landreport/pkg/types"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a report for an analysis context",
	Long: `Assemble loads the current result of every module the report type
needs, renders each as a fragment, checks the fragments, and composes the
report. The run is recorded in the store.

The command exits non-zero when a critical KPI is missing (FAIL) or when a
fragment is malformed. Missing secondary KPIs produce a WARN report with a
visible pending-data notice.`,
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().String("context", "", "analysis context ID (required)")
	assembleCmd.Flags().String("type", "", "report type, or \"all\" for every type (required)")
	assembleCmd.Flags().String("out", "", "document path (default: <output.dir>/<context>-<type>.html)")
	assembleCmd.Flags().Bool("json", false, "print the assembly result as JSON")
	assembleCmd.Flags().Bool("no-transitions", false, "omit connecting text between module sections")
	assembleCmd.Flags().Bool("skip-fingerprints", false, "do not cross-check fragment fingerprints")
	_ = assembleCmd.MarkFlagRequired("context")
	_ = assembleCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	contextID, _ := cmd.Flags().GetString("context")
	typeArg, _ := cmd.Flags().GetString("type")
	out, _ := cmd.Flags().GetString("out")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ids, err := reportTypesFromFlag(typeArg)
	if err != nil {
		return err
	}
	if out != "" && len(ids) > 1 {
		return fmt.Errorf("--out needs a single report type")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	opts := assemblerOptions(cmd)
	ctx := context.Background()

	var blocked []error
	for _, id := range ids {
		a, err := assemble.New(id, s, render.New(), opts...)
		if err != nil {
			return err
		}
		res, err := a.Assemble(ctx, contextID)
		if err != nil {
			return err
		}
		if err := s.RecordRun(ctx, res); err != nil {
			return err
		}

		path := ""
		if !res.Failed() {
			path = out
			if path == "" {
				path = filepath.Join(engineConfig.Output.Dir, fmt.Sprintf("%s-%s.html", contextID, id))
			}
			if err := writeDocument(path, res.Document); err != nil {
				return err
			}
		}

		if jsonOutput || engineConfig.Output.Format == types.OutputJSON {
			if err := printResultJSON(os.Stdout, res); err != nil {
				return err
			}
		} else {
			printResult(os.Stdout, res, path)
		}

		if err := assemble.BlockingError(res); err != nil {
			blocked = append(blocked, err)
		}
	}

	switch len(blocked) {
	case 0:
		return nil
	case 1:
		return blocked[0]
	default:
		return fmt.Errorf("%d report(s) blocked: %w", len(blocked), blocked[0])
	}
}

// assemblerOptions combines configuration with per-command overrides.
func assemblerOptions(cmd *cobra.Command) []assemble.Option {
	verify := engineConfig.Assembly.VerifyFingerprints
	if skip, _ := cmd.Flags().GetBool("skip-fingerprints"); skip {
		verify = false
	}
	transitions := engineConfig.Assembly.Transitions
	if off, _ := cmd.Flags().GetBool("no-transitions"); off {
		transitions = false
	}
	return []assemble.Option{
		assemble.WithLogger(logger),
		assemble.WithFingerprintCheck(verify),
		assemble.WithTransitions(transitions),
	}
}

func reportTypesFromFlag(arg string) ([]types.ReportTypeID, error) {
	if arg == "all" {
		return reporttype.IDs(), nil
	}
	var ids []types.ReportTypeID
	for _, part := range strings.Split(arg, ",") {
		id, err := reporttype.ParseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeDocument(path, doc string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func printResultJSON(w io.Writer, res *types.AssemblyResult) error {
	// The document itself goes to disk.
	out := *res
	out.Document = ""
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printResult(w io.Writer, res *types.AssemblyResult, path string) {
	fmt.Fprintf(w, "%s  %s  %s  run %s\n", res.Status, res.ReportType, res.ContextID, res.RunID)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, c := range res.Checks {
		fmt.Fprintf(w, "%-5s  %-24s  %s\n", c.Status, c.Name, c.Detail)
	}
	if path != "" {
		fmt.Fprintf(w, "\nWrote %s (%d bytes)\n", path, len(res.Document))
	}
	fmt.Fprintln(w)
}

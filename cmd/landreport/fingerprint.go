// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/pkg/types"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the data fingerprints of stored module results",
	Long: `Fingerprint recomputes the fingerprint of each stored module result for a
context and compares it with the value recorded at write time. A report's
QA section carries the same fingerprints, so they tie a document back to
the exact data it was assembled from.`,
	RunE: runFingerprint,
}

func init() {
	fingerprintCmd.Flags().String("context", "", "analysis context ID (required)")
	fingerprintCmd.Flags().String("module", "", "limit to one module (M2-M6)")
	_ = fingerprintCmd.MarkFlagRequired("context")

	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	contextID, _ := cmd.Flags().GetString("context")
	moduleArg, _ := cmd.Flags().GetString("module")

	var only types.ModuleID
	if moduleArg != "" {
		m, err := types.ParseModuleID(moduleArg)
		if err != nil {
			return err
		}
		only = m
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.List(context.Background(), contextID)
	if err != nil {
		return err
	}

	var shown, drifted int
	for _, r := range results {
		if only != "" && r.ModuleID != only {
			continue
		}
		current := integrity.Fingerprint(r.ModuleID, r.Summary)
		state := "ok"
		if !integrity.CompareFingerprints(current, r.Fingerprint) {
			state = "stored " + r.Fingerprint
			drifted++
		}
		fmt.Fprintf(os.Stdout, "%-4s  %s  %s\n", r.ModuleID, current, state)
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no results for %s: %w", contextID, types.ErrNotFound)
	}
	if drifted > 0 {
		return fmt.Errorf("%d fingerprint(s) differ from the stored value", drifted)
	}
	return nil
}

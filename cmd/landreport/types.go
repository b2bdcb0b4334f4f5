// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/landreport/internal/reporttype"
	"github.com/pdiddy/landreport/pkg/types"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the report types and their requirements",
	RunE:  runTypes,
}

func init() {
	typesCmd.Flags().Bool("json", false, "output report type configurations as JSON")
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	var configs []types.ReportTypeConfig
	for _, id := range reporttype.IDs() {
		cfg, err := reporttype.GetConfig(id)
		if err != nil {
			return err
		}
		configs = append(configs, cfg)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(configs)
	}

	for _, cfg := range configs {
		fmt.Fprintf(os.Stdout, "%s  (%s)\n", cfg.ID, cfg.Title)
		sections := make([]string, len(cfg.Sections))
		for i, s := range cfg.Sections {
			sections[i] = string(s)
		}
		fmt.Fprintf(os.Stdout, "  sections: %s\n", strings.Join(sections, " > "))
		for _, m := range cfg.Modules {
			fmt.Fprintf(os.Stdout, "  %-3s critical: %-40s soft: %s\n", m,
				strings.Join(cfg.Critical[m], ","), strings.Join(cfg.Soft[m], ","))
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

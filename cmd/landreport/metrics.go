// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/landreport/internal/finance"
	"github.com/pdiddy/landreport/internal/integrity"
	"github.com/pdiddy/landreport/internal/numfmt"
	"github.com/pdiddy/landreport/pkg/types"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute feasibility metrics (NPV, IRR, payback, ROI)",
	Long: `Metrics evaluates a cash-flow series the way the feasibility module does:
net present value at the discount rate, internal rate of return, payback
period, and return on investment.

Input comes from a YAML file (--input) with upfront_cost, discount_rate and
cashflows, or from flags. With --save the metrics are stored as the M5
result of --context, ready for assembly.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().String("input", "", "YAML file with upfront_cost, discount_rate, cashflows")
	metricsCmd.Flags().String("cashflows", "", "comma-separated yearly net inflows for years 1..T")
	metricsCmd.Flags().Float64("upfront", 0, "year-0 investment")
	metricsCmd.Flags().Float64("rate", 0, "annual discount rate as a fraction (0.05 = 5%)")
	metricsCmd.Flags().String("context", "", "analysis context ID to save the M5 result under")
	metricsCmd.Flags().Bool("save", false, "store the metrics as the M5 module result")
	metricsCmd.Flags().Bool("json", false, "print metrics as JSON")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	in, err := cashflowInput(cmd)
	if err != nil {
		return err
	}

	f, err := finance.Evaluate(in)
	if err != nil {
		return err
	}
	if !f.IRR.Converged {
		logger.Warn("IRR did not converge; reporting last estimate",
			zap.Int("iterations", f.IRR.Iterations),
			zap.Float64("irr_percent", f.IRR.Percent))
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f.Summary()); err != nil {
			return err
		}
	} else {
		printFeasibility(f)
	}

	save, _ := cmd.Flags().GetBool("save")
	if !save {
		return nil
	}
	contextID, _ := cmd.Flags().GetString("context")
	if contextID == "" {
		return fmt.Errorf("--save needs --context")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res := &types.ModuleResult{
		ContextID:  contextID,
		ModuleID:   types.ModuleFeasibility,
		Summary:    f.Summary(),
		Details:    types.Payload{"input": in},
		ProducedAt: time.Now().UTC(),
	}
	if err := s.Put(context.Background(), res); err != nil {
		return err
	}
	fmt.Printf("Saved %s/%s\n", contextID, types.ModuleFeasibility)
	return nil
}

// cashflowKeys must be present in a --input file.
var cashflowKeys = []string{"upfront_cost", "discount_rate", "cashflows"}

func cashflowInput(cmd *cobra.Command) (types.CashflowInput, error) {
	path, _ := cmd.Flags().GetString("input")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return types.CashflowInput{}, err
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return types.CashflowInput{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if ok, missing := integrity.VerifyRequiredFields(raw, cashflowKeys); !ok {
			return types.CashflowInput{}, fmt.Errorf("%s: missing %s", path, strings.Join(missing, ", "))
		}
		var in types.CashflowInput
		if err := yaml.Unmarshal(data, &in); err != nil {
			return types.CashflowInput{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		return in, nil
	}

	raw, _ := cmd.Flags().GetString("cashflows")
	if raw == "" {
		return types.CashflowInput{}, fmt.Errorf("provide --input FILE or --cashflows")
	}
	cashflows, err := parseCashflows(raw)
	if err != nil {
		return types.CashflowInput{}, err
	}
	upfront, _ := cmd.Flags().GetFloat64("upfront")
	rate, _ := cmd.Flags().GetFloat64("rate")
	return types.CashflowInput{UpfrontCost: upfront, DiscountRate: rate, Cashflows: cashflows}, nil
}

func parseCashflows(raw string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("cash flow %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func printFeasibility(f finance.Feasibility) {
	payback := "never"
	if !math.IsInf(f.PaybackYears, 1) {
		payback = numfmt.WithUnit(f.PaybackYears, "years")
	}
	irr := numfmt.Percent(f.IRR.Percent)
	if !f.IRR.Converged {
		irr += " (not converged)"
	}
	fmt.Fprintf(os.Stdout, "%-10s %s\n", "NPV", numfmt.Amount(f.NPV))
	fmt.Fprintf(os.Stdout, "%-10s %s\n", "IRR", irr)
	fmt.Fprintf(os.Stdout, "%-10s %s\n", "Payback", payback)
	roi := "n/a"
	if f.ROI != nil {
		roi = numfmt.Percent(*f.ROI)
	}
	fmt.Fprintf(os.Stdout, "%-10s %s\n", "ROI", roi)
}

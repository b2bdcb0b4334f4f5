// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the landreport CLI. It assembles
// land-development reports from stored module results and manages the
// result store.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/landreport/internal/store"
	"github.com/pdiddy/landreport/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// engineConfig is loaded once per invocation in PersistentPreRunE.
	engineConfig types.EngineConfig

	// logger writes structured diagnostics to stderr.
	logger = zap.NewNop()
)

// rootCmd is the base command for the landreport CLI.
var rootCmd = &cobra.Command{
	Use:   "landreport",
	Short: "Assemble land-development reports from module results",
	Long: `landreport composes final reports (quick check, landowner summary,
LH technical, financial feasibility, executive summary, all-in-one) from
the stored results of the analysis modules M2-M6.

Reports are gated on critical KPIs: if one is missing the report is not
produced. Missing secondary KPIs are shown as pending data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&engineConfig); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(engineConfig.Log.Level, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./landreport.yaml or ~/.config/landreport/landreport.yaml)")
	rootCmd.PersistentFlags().String("store", "", "path to the result database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	viper.SetDefault("store.path", filepath.Join("data", "context.db"))
	viper.SetDefault("assembly.verify_fingerprints", true)
	viper.SetDefault("assembly.transitions", true)
	viper.SetDefault("output.dir", filepath.Join("output", "reports"))
	viper.SetDefault("output.format", string(types.OutputText))
	viper.SetDefault("log.level", "info")

	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("landreport")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "landreport"))
		}
	}

	viper.SetEnvPrefix("LANDREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the production logger. verbose forces debug level.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if verbose {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.Level = lvl
	return cfg.Build()
}

// openStore opens the configured result store.
func openStore() (*store.Store, error) {
	s, err := store.NewStore(engineConfig.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", zap.String("path", s.Path()))
	return s, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

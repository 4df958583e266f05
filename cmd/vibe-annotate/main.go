// Package main provides the vibe-annotate command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-annotate/internal/annotate"
	"github.com/inodb/vibe-annotate/internal/load"
	"github.com/inodb/vibe-annotate/internal/output"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vibe-annotate",
		Short:        "Annotate a VCF file using a population VCF (TOPMED, gnomAD, dbSNP, ...)",
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	root.AddCommand(newAnnotateCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig wires viper defaults and the optional ~/.vibe-annotate.yaml.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-annotate")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("batch-size", load.DefaultBatchSize)
	viper.SetDefault("missing-marker", output.MissingMarker)
	viper.SetDefault("join.tie-break", string(annotate.FirstMatch))

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

// newLogger builds the stderr logger shared by the subcommands.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

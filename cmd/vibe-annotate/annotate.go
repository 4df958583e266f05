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
	"github.com/inodb/vibe-annotate/internal/store"
)

func newAnnotateCmd() *cobra.Command {
	var (
		inputPath  string
		annPath    string
		outputPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate a subject VCF against an annotation VCF",
		Long: `Load both VCF files into indexed stores, split multi-allelic records
into one row per alternate allele, and left-join the subject rows
against the annotation rows on position, chromosome and allele pair
(in either orientation). The annotation store is kept next to the
annotation file and reused on later runs.`,
		Example: `  vibe-annotate annotate -i subject.vcf.gz -a topmed.vcf.gz -o annotated.tsv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(inputPath, annPath, outputPath, verbose)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "gzipped VCF file to annotate")
	cmd.Flags().StringVarP(&annPath, "annotation", "a", "", "gzipped VCF file with annotations (TOPMED, gnomAD, etc.)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "output", "output file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("annotation")

	return cmd
}

func runAnnotate(inputPath, annPath, outputPath string, verbose bool) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	batchSize := viper.GetInt("batch-size")

	// The annotation store is durable and reused across runs.
	annStorePath, err := load.LoadFileOnce(annPath, logger, batchSize)
	if err != nil {
		return fmt.Errorf("annotation file %s: %w", annPath, err)
	}

	// The subject store is a scratch resource, removed on all exits.
	subject, err := store.OpenTemp()
	if err != nil {
		return err
	}
	defer subject.Close()

	loader := load.New(subject)
	loader.SetLogger(logger)
	loader.SetBatchSize(batchSize)

	nRec, err := loader.LoadFile(inputPath)
	if err != nil {
		return fmt.Errorf("input file %s: %w", inputPath, err)
	}
	logger.Info("subject file loaded", zap.Int64("records", nRec))

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	w := output.NewTabWriter(out)
	w.SetMissingMarker(viper.GetString("missing-marker"))

	joiner := annotate.New(subject, annStorePath)
	joiner.SetTieBreak(annotate.TieBreak(viper.GetString("join.tie-break")))
	joiner.SetLogger(logger)

	n, err := joiner.Run(w)
	if err != nil {
		return fmt.Errorf("annotate %s: %w", inputPath, err)
	}

	fmt.Printf("%d rows in the output file\ndone...\n", n)
	return nil
}

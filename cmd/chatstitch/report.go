package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chatstitch/internal/domain"
	"chatstitch/internal/report"
	"chatstitch/internal/sequencer"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var topN, sampleN int
	cmd := &cobra.Command{
		Use:   "report [batchDir]",
		Short: "Summarize batch coverage and cross-batch duplication",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			entries, err := sequenceEntries(cfg, args)
			if err != nil {
				return err
			}
			report.Batches(entries, topN, sampleN).Write(os.Stdout)
			return nil
		},
	}
	cmd.Flags().IntVar(&topN, "top", 10, "date markers to show in histograms")
	cmd.Flags().IntVar(&sampleN, "samples", 10, "cross-batch duplicate samples to show")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [batchDirA] [batchDirB]",
		Short: "Compare two capture batches and pick the better one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			seq := sequencer.New(cfg.General.DataRoot, cfg.General.PartGlob, logger)

			var stats [2]report.BatchStats
			for i, dir := range args {
				entries, err := seq.Sequence(dir)
				if err != nil {
					return fmt.Errorf("sequence %s: %w", dir, err)
				}
				stats[i] = report.Analyze(filepath.Base(dir), entries)
			}

			report.Compare(stats[0], stats[1]).Write(os.Stdout)
			return nil
		},
	}
}

func chronologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chronology [file]",
		Short: "Check timestamp ordering of the cleaned transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			path := filepath.Join(cfg.General.ProcessedDir, cleanedFile)
			if len(args) > 0 {
				path = args[0]
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read %s (run 'chatstitch clean' first?): %w", path, err)
			}
			var messages []domain.Message
			if err := json.Unmarshal(data, &messages); err != nil {
				return fmt.Errorf("cannot parse %s: %w", path, err)
			}

			result := report.CheckOrder(messages, time.Now())
			fmt.Printf("Messages: %d\nParsable timestamps: %d\nOut of order: %d\n",
				result.Total, result.Parsable, len(result.OutOfOrder))
			for _, o := range result.OutOfOrder {
				fmt.Printf("  #%d %q comes after %q\n", o.Index, o.Timestamp, o.Previous)
			}
			return nil
		},
	}
}

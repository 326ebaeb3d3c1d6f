package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"chatstitch/internal/archive"
	"chatstitch/internal/capture"
	"chatstitch/internal/media"
	"chatstitch/internal/sequencer"

	"github.com/spf13/cobra"
)

func captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a conversation into a new batch of part files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bridge := capture.NewBridge(capture.BridgeConfig{
				ProfileDir: cfg.Capture.ProfileDir,
				Headless:   cfg.Capture.Headless,
				Logger:     logger,
			})

			batchDir, err := nextBatchDir(cfg.General.DataRoot)
			if err != nil {
				return err
			}

			capturer := capture.NewCapturer(bridge, capture.Config{
				URL:         cfg.Capture.URL,
				OutDir:      batchDir,
				PartSize:    cfg.Capture.PartSize,
				MaxParts:    cfg.Capture.MaxParts,
				ScrollPause: time.Duration(cfg.Capture.ScrollPauseMs) * time.Millisecond,
			})

			parts, err := capturer.Run(ctx)
			if err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			logger.Info("capture complete", "batch", batchDir, "parts", parts)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Open a visible browser to log in; the session persists in the Chrome profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bridge := capture.NewBridge(capture.BridgeConfig{
				ProfileDir: cfg.Capture.ProfileDir,
				Logger:     logger,
			})
			return bridge.Login(ctx, cfg.Capture.URL)
		},
	})

	return cmd
}

// nextBatchDir picks the first unused batchN directory under the data root.
func nextBatchDir(dataRoot string) (string, error) {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return "", fmt.Errorf("cannot create data root %s: %w", dataRoot, err)
	}
	entries, err := os.ReadDir(dataRoot)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n := sequencer.BatchNumber(filepath.Join(dataRoot, e.Name(), "x")); n > highest {
			highest = n
		}
	}
	return filepath.Join(dataRoot, "batch"+strconv.Itoa(highest+1)), nil
}

func mediaCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "media [historyFile]",
		Short: "Extract inline base64 images from a media-history capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if outDir == "" {
				outDir = filepath.Join(cfg.General.ProcessedDir, "extracted_images")
			}
			stats, err := media.Extract(args[0], outDir, logger)
			if err != nil {
				return err
			}
			logger.Info("media extraction complete",
				"photos", stats.Photos,
				"videos", stats.Videos,
				"errors", stats.Errors,
				"output", outDir,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: <processedDir>/extracted_images)")
	return cmd
}

func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived pipeline runs",
	}

	openStore := func() (*archive.Store, error) {
		cfg := loadConfig()
		if cfg.Archive.DBPath == "" {
			return nil, fmt.Errorf("archive.dbPath is not configured")
		}
		return archive.Open(cfg.Archive.DBPath, logger)
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%d\t%s\t%s\traw=%d final=%d\t%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Source, r.RawCount, r.Final, r.Partner)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [runID]",
		Short: "Print one archived transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID %q", args[0])
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			msgs, err := store.Messages(cmd.Context(), runID)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Sender, m.Content)
				for _, a := range m.Attachments {
					fmt.Printf("    attachment: %s\n", a)
				}
			}
			return nil
		},
	})

	return cmd
}

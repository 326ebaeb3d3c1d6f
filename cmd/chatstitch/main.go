package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"chatstitch/internal/archive"
	"chatstitch/internal/config"
	"chatstitch/internal/domain"
	"chatstitch/internal/pipeline"
	"chatstitch/internal/rules"
	"chatstitch/internal/sequencer"

	"github.com/spf13/cobra"
)

const (
	stitchedFile = "final_rows.json"
	cleanedFile  = "final_clean_rows.json"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "chatstitch",
		Short:   "chatstitch: reconstruct chat transcripts from scroll captures",
		Long:    "chatstitch stitches overlapping Messenger scroll captures into a single clean transcript.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.chatstitch/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(stitchCmd())
	root.AddCommand(cleanCmd())
	root.AddCommand(runCmd())
	root.AddCommand(configCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(chronologyCmd())
	root.AddCommand(captureCmd())
	root.AddCommand(mediaCmd())
	root.AddCommand(archiveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			for _, dir := range []string{config.ExpandPath(cfg.General.DataRoot), config.ExpandPath(cfg.General.ProcessedDir)} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			logger.Info("initialized", "config", cfgPath, "dataRoot", cfg.General.DataRoot)
			return nil
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults when it does
// not exist yet, and rebuilds the logger from the configured level.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = newLogger(cfg)
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func loadRules(cfg *config.Config) (rules.Set, error) {
	set, err := rules.Load(cfg.Cleaning.RulesFile, cfg.Partner.DisplayName, logger)
	if err != nil {
		return set, err
	}
	if cfg.Cleaning.NoiseThreshold > 0 {
		set.NoiseThreshold = cfg.Cleaning.NoiseThreshold
	}
	return set, nil
}

// sequenceEntries flattens the raw capture corpus. With a batch dir argument
// only that batch is read; otherwise the whole data root.
func sequenceEntries(cfg *config.Config, args []string) ([]domain.RawCaptureEntry, error) {
	seq := sequencer.New(cfg.General.DataRoot, cfg.General.PartGlob, logger)
	targetDir := ""
	if len(args) > 0 {
		targetDir = args[0]
	}
	return seq.Sequence(targetDir)
}

func readEntries(path string) ([]domain.RawCaptureEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s (run 'chatstitch stitch' first?): %w", path, err)
	}
	var entries []domain.RawCaptureEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return entries, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal output: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func stitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stitch [batchDir]",
		Short: "Merge raw part files into one ordered row file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			entries, err := sequenceEntries(cfg, args)
			if err != nil {
				return err
			}
			out := filepath.Join(cfg.General.ProcessedDir, stitchedFile)
			if err := writeJSON(out, entries); err != nil {
				return err
			}
			logger.Info("stitched", "entries", len(entries), "output", out)
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean and deduplicate the stitched row file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			entries, err := readEntries(filepath.Join(cfg.General.ProcessedDir, stitchedFile))
			if err != nil {
				return err
			}
			_, err = cleanAndWrite(cfg, entries)
			return err
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [batchDir]",
		Short: "Stitch, clean, and deduplicate in one pass",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			entries, err := sequenceEntries(cfg, args)
			if err != nil {
				return err
			}
			if err := writeJSON(filepath.Join(cfg.General.ProcessedDir, stitchedFile), entries); err != nil {
				return err
			}
			source := cfg.General.DataRoot
			if len(args) > 0 {
				source = args[0]
			}
			messages, err := cleanAndWrite(cfg, entries)
			if err != nil {
				return err
			}
			if cfg.Archive.Enabled {
				return archiveRun(cmd.Context(), cfg, source, len(entries), messages)
			}
			return nil
		},
	}
}

func cleanAndWrite(cfg *config.Config, entries []domain.RawCaptureEntry) ([]domain.Message, error) {
	set, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(pipeline.Config{Rules: set, Logger: logger})
	messages, stats := p.Run(entries)

	out := filepath.Join(cfg.General.ProcessedDir, cleanedFile)
	if err := writeJSON(out, messages); err != nil {
		return nil, err
	}
	logger.Info("wrote clean transcript",
		"output", out,
		"raw", stats.Raw,
		"final", stats.Final,
		"noiseUrls", stats.NoiseURLs,
	)
	return messages, nil
}

func archiveRun(ctx context.Context, cfg *config.Config, source string, rawCount int, messages []domain.Message) error {
	store, err := archive.Open(cfg.Archive.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	_, err = store.SaveRun(ctx, archive.Run{
		Source:   source,
		Partner:  cfg.Partner.DisplayName,
		RawCount: rawCount,
		Final:    len(messages),
	}, messages)
	return err
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. partner.displayName)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. cleaning.noiseThreshold 40)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(cfg, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

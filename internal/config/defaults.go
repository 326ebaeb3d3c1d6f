package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			DataRoot:     "~/.chatstitch/data/raw",
			ProcessedDir: "~/.chatstitch/data/processed",
			PartGlob:     "messenger_row_part_*.json",
			LogLevel:     "info",
		},
		Partner: PartnerConfig{
			DisplayName: "Partner",
		},
		Cleaning: CleaningConfig{
			NoiseThreshold: 25,
		},
		Capture: CaptureConfig{
			URL:           "https://www.messenger.com",
			ProfileDir:    "~/.chatstitch/chrome-profiles/default",
			Headless:      false,
			PartSize:      10,
			MaxParts:      50,
			ScrollPauseMs: 2000,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			DBPath:  "~/.chatstitch/archive.db",
		},
	}
}

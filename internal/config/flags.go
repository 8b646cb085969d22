package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagStep     = flag.Float64("step", 0, "Sampling step size in meters")
	flagTextures = flag.String("textures", "", "Directory containing surface textures")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file")
	flagVerbose  = flag.Bool("v", false, "Enable debug logging")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagStep > 0 {
		cfg.Convert.StepSize = *flagStep
	}
	if *flagTextures != "" {
		cfg.Convert.TextureDir = *flagTextures
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagVerbose {
		cfg.Logging.Level = "debug"
	}
}

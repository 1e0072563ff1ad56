package config

import "flag"

// Flags holds the command-line overrides shared by the pipeline commands.
type Flags struct {
	config   *string
	debug    *bool
	logFile  *string
	azimuths *int
	workers  *int
	scratch  *string
	keep     *bool
	output   *string
	preview  *string
}

// RegisterFlags adds the config overrides to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:   fs.String("config", "", "Path to config file"),
		debug:    fs.Bool("debug", false, "Enable debug logging"),
		logFile:  fs.String("log", "", "Also write logs to this file"),
		azimuths: fs.Int("azimuths", 0, "Number of azimuths (must divide 360)"),
		workers:  fs.Int("workers", 0, "Concurrent azimuth passes"),
		scratch:  fs.String("scratch", "", "Directory for per-azimuth fields"),
		keep:     fs.Bool("keep", false, "Keep per-azimuth fields after compression"),
		output:   fs.String("o", "", "Output directory"),
		preview:  fs.String("preview", "", "Write PNG previews of each layer to this directory"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.azimuths > 0 {
		cfg.Horizon.Azimuths = *f.azimuths
	}
	if *f.workers > 0 {
		cfg.Horizon.Workers = *f.workers
	}
	if *f.scratch != "" {
		cfg.Horizon.ScratchDir = *f.scratch
	}
	if *f.keep {
		cfg.Horizon.KeepScratch = true
	}
	if *f.output != "" {
		cfg.Output.Dir = *f.output
	}
	if *f.preview != "" {
		cfg.Output.PreviewDir = *f.preview
	}
}

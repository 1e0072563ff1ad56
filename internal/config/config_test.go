package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Horizon.Azimuths != 360 {
		t.Errorf("expected 360 azimuths, got %d", cfg.Horizon.Azimuths)
	}
	if cfg.Horizon.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Horizon.Workers)
	}
	if cfg.Horizon.ScratchDir != "./horizons" {
		t.Errorf("expected scratch dir ./horizons, got %s", cfg.Horizon.ScratchDir)
	}
	if cfg.Horizon.KeepScratch {
		t.Error("expected keep_scratch to be false by default")
	}
	if cfg.Output.Dir != "" || cfg.Output.PreviewDir != "" {
		t.Errorf("expected empty output dirs, got %+v", cfg.Output)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"four azimuths", func(c *Config) { c.Horizon.Azimuths = 4 }, false},
		{"azimuths not dividing 360", func(c *Config) { c.Horizon.Azimuths = 7 }, true},
		{"zero azimuths", func(c *Config) { c.Horizon.Azimuths = 0 }, true},
		{"zero workers", func(c *Config) { c.Horizon.Workers = 0 }, true},
		{"negative row workers", func(c *Config) { c.Horizon.RowWorkers = -1 }, true},
		{"empty scratch", func(c *Config) { c.Horizon.ScratchDir = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveRowWorkers(t *testing.T) {
	cfg := Default()
	if cfg.EffectiveRowWorkers() <= 0 {
		t.Error("expected GOMAXPROCS fallback to be positive")
	}
	cfg.Horizon.RowWorkers = 3
	if cfg.EffectiveRowWorkers() != 3 {
		t.Errorf("expected 3 row workers, got %d", cfg.EffectiveRowWorkers())
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
horizon:
  azimuths: 72
  workers: 4
  row_workers: 2
  scratch_dir: "/tmp/horizons"
  keep_scratch: true

output:
  dir: "out"
  preview_dir: "previews"

logging:
  level: "debug"
  log_file: "bake.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Horizon.Azimuths != 72 {
		t.Errorf("expected 72 azimuths, got %d", cfg.Horizon.Azimuths)
	}
	if cfg.Horizon.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Horizon.Workers)
	}
	if cfg.Horizon.RowWorkers != 2 {
		t.Errorf("expected 2 row workers, got %d", cfg.Horizon.RowWorkers)
	}
	if cfg.Horizon.ScratchDir != "/tmp/horizons" {
		t.Errorf("expected scratch /tmp/horizons, got %s", cfg.Horizon.ScratchDir)
	}
	if !cfg.Horizon.KeepScratch {
		t.Error("expected keep_scratch to be true")
	}
	if cfg.Output.Dir != "out" || cfg.Output.PreviewDir != "previews" {
		t.Errorf("unexpected output config %+v", cfg.Output)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bake.log" {
		t.Errorf("expected log file 'bake.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("horizon:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Horizon.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Horizon.Workers)
	}
	// Untouched keys keep their defaults
	if cfg.Horizon.Azimuths != 360 {
		t.Errorf("expected default 360 azimuths, got %d", cfg.Horizon.Azimuths)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
horizon:
  azimuths: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "clipmaptool.yaml")
	if err := os.WriteFile(configPath, []byte("horizon:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find clipmaptool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "pipeline flags",
			args: []string{"-azimuths", "90", "-workers", "2", "-scratch", "/tmp/x", "-keep"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Horizon.Azimuths != 90 {
					t.Errorf("expected 90 azimuths, got %d", cfg.Horizon.Azimuths)
				}
				if cfg.Horizon.Workers != 2 {
					t.Errorf("expected 2 workers, got %d", cfg.Horizon.Workers)
				}
				if cfg.Horizon.ScratchDir != "/tmp/x" {
					t.Errorf("expected scratch /tmp/x, got %s", cfg.Horizon.ScratchDir)
				}
				if !cfg.Horizon.KeepScratch {
					t.Error("expected keep_scratch with -keep")
				}
			},
		},
		{
			name: "output flags",
			args: []string{"-o", "out", "-preview", "prev", "-log", "run.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Dir != "out" {
					t.Errorf("expected output dir 'out', got %s", cfg.Output.Dir)
				}
				if cfg.Output.PreviewDir != "prev" {
					t.Errorf("expected preview dir 'prev', got %s", cfg.Output.PreviewDir)
				}
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file 'run.log', got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "no flags keeps defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Horizon.Workers != 8 {
					t.Errorf("expected default workers, got %d", cfg.Horizon.Workers)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			cfg := Default()
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
horizon:
  azimuths: 180
  workers: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-workers", "6"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, not file
	if cfg.Horizon.Workers != 6 {
		t.Errorf("expected 6 workers from flag, got %d", cfg.Horizon.Workers)
	}
	// Azimuths from file since no flag override
	if cfg.Horizon.Azimuths != 180 {
		t.Errorf("expected 180 azimuths from file, got %d", cfg.Horizon.Azimuths)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", "/dev/null", "-azimuths", "7"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := Load(flags); err == nil {
		t.Error("expected validation error for 7 azimuths")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Horizon.Azimuths = 36

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Horizon.Azimuths != 36 {
		t.Errorf("expected 36 azimuths after reload, got %d", loaded.Horizon.Azimuths)
	}
}

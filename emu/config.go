package emu

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"x65/emu/log"
	"x65/hw"
)

type Config struct {
	Machine MachineConfig `toml:"machine"`
	Video   VideoConfig   `toml:"video"`
	General GeneralConfig `toml:"general"`

	TraceOut io.WriteCloser `toml:"-"`
}

type MachineConfig struct {
	ClockHz     int    `toml:"clock_hz"`
	BCDDisabled bool   `toml:"bcd_disabled"`
	LoadAddr    uint32 `toml:"load_addr"`
}

type VideoConfig struct {
	Scale        int    `toml:"scale"`
	DisableVSync bool   `toml:"disable_vsync"`
	Shader       string `toml:"shader"`
}

type GeneralConfig struct {
	// Maximum number of emulated frames per second, 0 for no cap.
	FramesPerSecondCap int `toml:"frames_per_second_cap"`
}

func DefaultConfig() Config {
	return Config{
		Machine: MachineConfig{
			ClockHz:  hw.DefaultClockHz,
			LoadAddr: 0x8000,
		},
		Video: VideoConfig{
			Scale:  1,
			Shader: hw.ShaderDefault,
		},
		General: GeneralConfig{
			FramesPerSecondCap: 60,
		},
	}
}

// ConfigDir returns the x65 config directory, creating it if needed.
var ConfigDir = sync.OnceValue(func() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("no user config directory: %v", err)
	}
	dir = filepath.Join(dir, "x65")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the x65 config directory,
// or provide a default one, saved there if there was no config yet.
func LoadConfigOrDefault() Config {
	cfg, err := loadConfig(filepath.Join(ConfigDir(), cfgFilename))
	switch {
	case os.IsNotExist(err):
		// First run, write the defaults so there's a file to edit.
		cfg = DefaultConfig()
		if err := SaveConfig(cfg); err != nil {
			log.ModEmu.WarnZ("failed to save default config").Error("err", err).End()
		}
	case err != nil:
		log.ModEmu.WarnZ("invalid config, using defaults").Error("err", err).End()
		cfg = DefaultConfig()
	}
	return cfg
}

// loadConfig decodes path over the default configuration, so that missing
// keys keep their default value.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Video.Scale < 1 {
		cfg.Video.Scale = 1
	}
	return cfg, nil
}

// SaveConfig into x65 config directory.
func SaveConfig(cfg Config) error {
	return saveConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func saveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

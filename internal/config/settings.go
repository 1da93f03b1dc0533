package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// AppName names the per-user data directory.
const AppName = "shot-sorter"

// Settings are the runtime options of the classifier tools.
type Settings struct {
	DataDir            string   `mapstructure:"data_dir"`
	RequireBodycam     bool     `mapstructure:"require_bodycam"`
	GroupWindowSeconds int      `mapstructure:"group_window_seconds"`
	ResultCacheSize    int      `mapstructure:"result_cache_size"`
	OCREngines         []string `mapstructure:"ocr_engines"`
	TesseractLanguages []string `mapstructure:"tesseract_languages"`
	ExecCommand        string   `mapstructure:"exec_command"`
	ExecArgs           []string `mapstructure:"exec_args"`
	OCRCacheMax        int      `mapstructure:"ocr_cache_max"`
	OCRCachePrune      int      `mapstructure:"ocr_cache_prune"`
	PreloadDepth       int      `mapstructure:"preload_depth"`
	PreloadWorkers     int      `mapstructure:"preload_workers"`
}

// GroupWindow returns the body-camera grouping window.
func (s Settings) GroupWindow() time.Duration {
	return time.Duration(s.GroupWindowSeconds) * time.Second
}

// ThresholdsPath returns the threshold file location.
func (s Settings) ThresholdsPath() string { return filepath.Join(s.DataDir, "thresholds.json") }

// LocationKBPath returns the location knowledge base location.
func (s Settings) LocationKBPath() string { return filepath.Join(s.DataDir, "location_knowledge.json") }

// TriggerKBPath returns the trigger knowledge base location.
func (s Settings) TriggerKBPath() string { return filepath.Join(s.DataDir, "trigger_knowledge.json") }

// OCRCachePath returns the OCR disk cache location.
func (s Settings) OCRCachePath() string { return filepath.Join(s.DataDir, "ocr_cache.json") }

// DefaultDataDir returns ~/.config/shot-sorter (or the platform equivalent).
func DefaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "." + AppName
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("require_bodycam", true)
	v.SetDefault("group_window_seconds", 30)
	v.SetDefault("result_cache_size", 500)
	v.SetDefault("ocr_engines", []string{"tesseract", "exec"})
	v.SetDefault("tesseract_languages", []string{"rus", "eng"})
	v.SetDefault("exec_command", "")
	v.SetDefault("exec_args", []string{})
	v.SetDefault("ocr_cache_max", 5000)
	v.SetDefault("ocr_cache_prune", 1000)
	v.SetDefault("preload_depth", 4)
	v.SetDefault("preload_workers", 2)
}

// LoadSettings reads settings from defaults, then shotsort.yaml (explicit
// file, data directory, or working directory), then SHOTSORT_* environment
// variables. A missing config file is not an error.
func LoadSettings(file string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHOTSORT")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("shotsort")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.GroupWindowSeconds < 0 {
		s.GroupWindowSeconds = 0
	}
	if s.ResultCacheSize <= 0 {
		s.ResultCacheSize = 500
	}
	if s.PreloadDepth <= 0 {
		s.PreloadDepth = 4
	}
	if s.PreloadWorkers <= 0 {
		s.PreloadWorkers = 2
	}
	return s, nil
}

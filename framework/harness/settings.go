package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Size is a width and height in pixels.
type Size struct {
	Width  int `mapstructure:"width"  validate:"gte=1,lte=4096"`
	Height int `mapstructure:"height" validate:"gte=1,lte=4096"`
}

// Settings are the options for one run of the harness.
type Settings struct {
	Framebuffer Size `mapstructure:"framebuffer"`
	Texture     Size `mapstructure:"texture"`

	// OutputRoot is the writable location under which the output directory is created.
	OutputRoot  string `mapstructure:"output_root" validate:"required"`
	LogFileName string `mapstructure:"log_file"    validate:"required"`

	// RuntimeConfigPath is tried first, then FallbackConfigPath. Either may be empty.
	RuntimeConfigPath  string `mapstructure:"runtime_config"`
	FallbackConfigPath string `mapstructure:"fallback_config"`

	ProgressLog               bool `mapstructure:"progress_log"`
	InteractiveCrashAvoidance bool `mapstructure:"interactive_crash_avoidance"`
	DumpConfig                bool `mapstructure:"dump_config"`
	AllowSaving               bool `mapstructure:"allow_saving"`

	// Shutdown requests a power off at the end of the run instead of pausing for RebootDelay.
	Shutdown    bool          `mapstructure:"shutdown"`
	RebootDelay time.Duration `mapstructure:"reboot_delay" validate:"gte=0"`

	// GoldenDir, if set, enables a comparison of every saved frame after the run.
	GoldenDir       string `mapstructure:"golden_dir"`
	GoldenTolerance uint8  `mapstructure:"golden_tolerance"`
}

const (
	envPrefix          = "PGRAPH"
	outputDirName      = "nxdk_pgraph_tests"
	defaultLogFileName = "pgraph_progress_log.txt"
)

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("framebuffer.width", 640)
	vip.SetDefault("framebuffer.height", 480)
	vip.SetDefault("texture.width", 256)
	vip.SetDefault("texture.height", 256)
	vip.SetDefault("output_root", ".")
	vip.SetDefault("log_file", defaultLogFileName)
	vip.SetDefault("runtime_config", "")
	vip.SetDefault("fallback_config", "pgraph_tests.cnf")
	vip.SetDefault("progress_log", true)
	vip.SetDefault("interactive_crash_avoidance", true)
	vip.SetDefault("dump_config", false)
	vip.SetDefault("allow_saving", true)
	vip.SetDefault("shutdown", false)
	vip.SetDefault("reboot_delay", 4*time.Second)
	vip.SetDefault("golden_dir", "")
	vip.SetDefault("golden_tolerance", 0)
}

// LoadSettings reads settings from the YAML file at path, if path is not empty, and from
// PGRAPH_* environment variables, e.g. PGRAPH_FRAMEBUFFER_WIDTH or PGRAPH_OUTPUT_ROOT.
// Environment variables win over the file; anything unset keeps its default.
func LoadSettings(path string) (Settings, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	}
	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()
	setDefaults(vip)

	if path != "" {
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
			}
		}
	}

	var s Settings
	if err := vip.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	vip := viper.New()
	setDefaults(vip)
	var s Settings
	_ = vip.Unmarshal(&s)
	return s
}

func (s Settings) Validate() error {
	if err := validator.New().Struct(&s); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	return nil
}

// OutputDirectory returns the directory results are written to: OutputRoot, without trailing
// separators, plus "nxdk_pgraph_tests".
func (s Settings) OutputDirectory() string {
	root := strings.TrimRight(s.OutputRoot, `/\`)
	if root == "" {
		root = string(filepath.Separator)
	}
	return filepath.Join(root, outputDirName)
}

// LogFilePath returns the location of the progress log.
func (s Settings) LogFilePath() string {
	return filepath.Join(s.OutputDirectory(), s.LogFileName)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rzbill/navlaunch/pkg/ament"
	"github.com/rzbill/navlaunch/pkg/log"
)

// EnvPrefix prefixes environment overrides, e.g. NAVLAUNCH_LOG_LEVEL.
const EnvPrefix = "NAVLAUNCH"

// Log configures the navlaunch logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Ament controls how packages are located.
type Ament struct {
	// PrefixPath lists install prefixes searched for packages, highest
	// priority first.
	PrefixPath []string `mapstructure:"prefix_path"`

	// ShareDirs pins packages to share directories, bypassing the index.
	ShareDirs map[string]string `mapstructure:"share_dirs"`
}

// Launch controls run directories and process shutdown.
type Launch struct {
	RunDir         string        `mapstructure:"run_dir"`
	ROS2Binary     string        `mapstructure:"ros2_binary"`
	SigtermTimeout time.Duration `mapstructure:"sigterm_timeout"`
	SigkillTimeout time.Duration `mapstructure:"sigkill_timeout"`
}

// Config is the navlaunch configuration.
type Config struct {
	Log    Log    `mapstructure:"log"`
	Ament  Ament  `mapstructure:"ament"`
	Launch Launch `mapstructure:"launch"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Log:   Log{Level: "info", Format: "text"},
		Ament: Ament{PrefixPath: ament.SplitPrefixPath(os.Getenv(ament.PrefixPathEnv))},
		Launch: Launch{
			RunDir:         defaultRunDir(),
			ROS2Binary:     "ros2",
			SigtermTimeout: 5 * time.Second,
			SigkillTimeout: 5 * time.Second,
		},
	}
}

// defaultRunDir follows ros2's log directory convention.
func defaultRunDir() string {
	if rosHome := os.Getenv("ROS_HOME"); rosHome != "" {
		return filepath.Join(rosHome, "navlaunch")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return filepath.Join(os.TempDir(), "navlaunch")
	}
	return filepath.Join(home, ".ros", "navlaunch")
}

// Load reads path, or navlaunch.yaml from the default locations when path is
// empty, on top of the defaults. NAVLAUNCH_* environment variables override
// both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("navlaunch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".navlaunch"))
		}
		v.AddConfigPath("/etc/navlaunch/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Ament.PrefixPath = splitPrefixes(cfg.Ament.PrefixPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ament.prefix_path", d.Ament.PrefixPath)
	v.SetDefault("ament.share_dirs", map[string]string{})
	v.SetDefault("launch.run_dir", d.Launch.RunDir)
	v.SetDefault("launch.ros2_binary", d.Launch.ROS2Binary)
	v.SetDefault("launch.sigterm_timeout", d.Launch.SigtermTimeout)
	v.SetDefault("launch.sigkill_timeout", d.Launch.SigkillTimeout)
}

// splitPrefixes accepts both YAML lists and colon-separated strings, as an
// environment override yields.
func splitPrefixes(in []string) []string {
	var out []string
	for _, p := range in {
		out = append(out, ament.SplitPrefixPath(p)...)
	}
	return out
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q, expected text or json", c.Log.Format)
	}
	if c.Launch.RunDir == "" {
		return fmt.Errorf("launch.run_dir is required")
	}
	if c.Launch.SigtermTimeout <= 0 || c.Launch.SigkillTimeout <= 0 {
		return fmt.Errorf("launch.sigterm_timeout and launch.sigkill_timeout must be positive")
	}
	return nil
}

// LogConfig converts the log section for log.ApplyConfig.
func (c *Config) LogConfig() *log.Config {
	lc := log.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.File = c.Log.File
	return lc
}

// Resolver builds the package resolver: pinned share directories first, then
// the ament index over the prefix path.
func (c *Config) Resolver() ament.Resolver {
	chain := ament.Chain{}
	if len(c.Ament.ShareDirs) > 0 {
		chain = append(chain, ament.StaticIndex(c.Ament.ShareDirs))
	}
	return append(chain, ament.NewIndex(c.Ament.PrefixPath))
}

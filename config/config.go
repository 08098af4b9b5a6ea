// Package config loads sfssh settings from defaults, an optional YAML file
// and SFS_* environment variables, in increasing priority. Command-line
// flags bound to the same viper instance override all three.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mit-pdos/go-simplefs/image"
	"github.com/mit-pdos/go-simplefs/util"
)

const (
	AppName   = "sfs"
	EnvPrefix = "SFS"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Image      string `mapstructure:"image"`
	Blocks     uint64 `mapstructure:"blocks"`
	Debug      bool   `mapstructure:"debug"`
	DebugLevel uint64 `mapstructure:"debug_level"`
	LogFormat  string `mapstructure:"log_format"`
	LogFile    string `mapstructure:"log_file"`

	Export struct {
		Codec string `mapstructure:"codec"`
	} `mapstructure:"export"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("image", "")
	v.SetDefault("blocks", 0)
	v.SetDefault("debug", false)
	v.SetDefault("debug_level", 1)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")
	v.SetDefault("export.codec", "none")
}

// Load reads cfgFile, or sfs.yaml from the current directory or
// $HOME/.config/sfs when cfgFile is empty, and decodes v into a Config. A
// missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sfs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		util.DPrintf(1, "config: using %s\n", v.ConfigFileUsed())
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want human or json)", ErrInvalid, c.LogFormat)
	}
	if _, err := image.ParseCodec(c.Export.Codec); err != nil {
		return fmt.Errorf("%w: export.codec: %w", ErrInvalid, err)
	}
	return nil
}

// Codec is the parsed export codec; Validate has already checked it.
func (c *Config) Codec() image.Codec {
	codec, _ := image.ParseCodec(c.Export.Codec)
	return codec
}

// LoggerConfig returns the logging settings. With debug on, DebugLevel sets
// the DPrintf threshold; otherwise only level-0 messages are shown.
func (c *Config) LoggerConfig() util.LoggerConfig {
	return util.LoggerConfig{
		Debug:     c.Debug,
		LogFormat: c.LogFormat,
		LogFile:   c.LogFile,
	}
}

// Verbosity is the value for util.Debug.
func (c *Config) Verbosity() uint64 {
	if c.Debug {
		return c.DebugLevel
	}
	return 0
}

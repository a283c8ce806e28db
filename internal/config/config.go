package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/kiln/pkg/core"
)

const (
	// FileName is the optional config file looked up in the project root.
	FileName = "kiln.yaml"
	fileType = "yaml"

	// EnvPrefix prefixes environment overrides, e.g. KILN_SERVER_PORT.
	EnvPrefix = "KILN"
)

// Config is the effective kiln configuration.
type Config struct {
	Src    string       `mapstructure:"src" yaml:"src"`
	Dest   string       `mapstructure:"dest" yaml:"dest"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Sass   SassConfig   `mapstructure:"sass" yaml:"sass"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type SassConfig struct {
	Binary string `mapstructure:"binary" yaml:"binary"`
	Style  string `mapstructure:"style" yaml:"style"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Options controls where Load looks for settings.
type Options struct {
	Root  string         // project root holding kiln.yaml
	File  string         // explicit config file; must exist when set
	Flags *pflag.FlagSet // flags bound by FlagKeys
}

// FlagKeys maps flag names to the config keys they override.
var FlagKeys = map[string]string{
	"host":  "server.host",
	"port":  "server.port",
	"sass":  "sass.binary",
	"style": "sass.style",
}

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault("src", core.DefaultSrcDir)
	v.SetDefault("dest", core.DefaultDestDir)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("sass.binary", "sass")
	v.SetDefault("sass.style", "expanded")
	v.SetDefault("watch.debounce", "50ms")
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, err := resolveFile(opts)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType(fileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveFile(opts Options) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return opts.File, nil
	}
	if opts.Root == "" {
		return "", nil
	}
	path := filepath.Join(opts.Root, FileName)
	if _, err := os.Stat(path); err != nil {
		// Ignore error if config file doesn't exist.
		return "", nil
	}
	return path, nil
}

// Validate checks the settings Load cannot repair.
func (c *Config) Validate() error {
	switch {
	case c.Src == "":
		return fmt.Errorf("%w: src is empty", ErrInvalid)
	case c.Dest == "":
		return fmt.Errorf("%w: dest is empty", ErrInvalid)
	case filepath.Clean(c.Src) == filepath.Clean(c.Dest):
		return fmt.Errorf("%w: src and dest are the same directory", ErrInvalid)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	case c.Sass.Style != "expanded" && c.Sass.Style != "compressed":
		return fmt.Errorf("%w: sass.style must be expanded or compressed, got %q", ErrInvalid, c.Sass.Style)
	case c.Watch.Debounce < 0:
		return fmt.Errorf("%w: watch.debounce is negative", ErrInvalid)
	}
	return nil
}

// YAML renders the configuration as a kiln.yaml document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

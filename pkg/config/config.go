// config is the package containing configuration for snapdiff, shared
// so the flags and the config file agree on names.
package config

import (
	"fmt"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ConfigType            = "yaml"
	SnapdiffConfigVersion = "v1"
)

type Config struct {
	// This is expected to be present in a config file (and will not
	// correspond to a flag). If it is given and is not equal to
	// SnapdiffConfigVersion above, the configuration is invalid.
	ConfigVersion string `mapstructure:"snapdiffConfigVersion"`

	LogFormat string `mapstructure:"logFormat"`
	Output    string `mapstructure:"output"`
	// Categories to diff, by name; empty means all of them.
	Categories    []string      `mapstructure:"categories"`
	WatchInterval time.Duration `mapstructure:"watchInterval"`
	ListenMetrics string        `mapstructure:"listenMetrics"`
}

// Defaults fill in whatever neither a flag nor the config file set.
var Defaults = Config{
	ConfigVersion: SnapdiffConfigVersion,
	LogFormat:     "fmt",
	Output:        "text",
	WatchInterval: 30 * time.Second,
	ListenMetrics: ":9393",
}

func (c Config) WithDefaults() (Config, error) {
	if err := mergo.Merge(&c, Defaults); err != nil {
		return c, errors.Wrap(err, "applying config defaults")
	}
	return c, nil
}

func (c Config) IsValid() error {
	if c.ConfigVersion != "" && c.ConfigVersion != SnapdiffConfigVersion {
		return fmt.Errorf("config file is expected to include `snapdiffConfigVersion: %s` to mark it as a snapdiff config", SnapdiffConfigVersion)
	}
	switch c.LogFormat {
	case "", "fmt", "json":
	default:
		return fmt.Errorf("log format must be 'fmt' or 'json', not %q", c.LogFormat)
	}
	switch c.Output {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("output format must be 'text', 'json' or 'yaml', not %q", c.Output)
	}
	if c.WatchInterval < 0 {
		return fmt.Errorf("watch interval must not be negative, got %s", c.WatchInterval)
	}
	return nil
}

// Load reads the configuration out of v, which has had any config file
// read and flags bound, then fills in defaults and validates it.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "reading configuration")
	}
	c, err := c.WithDefaults()
	if err != nil {
		return c, err
	}
	return c, c.IsValid()
}

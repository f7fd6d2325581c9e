// Package daemon loads and validates the objfilter daemon configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	"github.com/jessevdk/go-flags"
	"github.com/objfilter/objfilter/internal/logging"
	"github.com/objfilter/objfilter/internal/store"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

type ConfigFile struct {
	Listen string `yaml:"listen" default:"localhost:5690"`
	// ListenerPasswordHash is an optional bcrypt hash; when set, the HTTP
	// API requires basic auth against it.
	ListenerPasswordHash string         `yaml:"listener-password-hash"`
	UpdateInterval       time.Duration  `yaml:"update-interval" default:"1m"`
	Database             store.Config   `yaml:"database"`
	Logging              logging.Config `yaml:"logging"`
}

// Validate validates the entire daemon configuration on daemon startup.
func (c *ConfigFile) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.UpdateInterval <= 0 {
		return errors.New("update-interval must be positive")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}

	return nil
}

var config *ConfigFile

// LoadConfig loads the daemon configuration from the YAML file at path,
// applying defaults for everything the file leaves out. It must be called
// before Config.
func LoadConfig(path string) error {
	c := new(ConfigFile)
	if err := defaults.Set(c); err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

// Config returns the configuration loaded by LoadConfig.
func Config() *ConfigFile {
	if config == nil {
		panic("daemon.LoadConfig has not been called")
	}
	return config
}

// Flags defines the CLI flags supported by the daemon.
type Flags struct {
	// Version decides whether to just print the version and exit.
	Version bool `long:"version" description:"print version and exit"`
	// Config is the path to the config file.
	Config string `short:"c" long:"config" description:"path to config file" default:"/etc/objfilter/config.yml"`
}

// ParseFlags parses the CLI flags provided to the executable. It prints any
// parsing error to os.Stderr and exits.
func ParseFlags() *Flags {
	f := new(Flags)
	if _, err := flags.Parse(f); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(ExitSuccess)
		}

		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}

	return f
}

package util

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
)

const (
	DefaultConfigFile = "kidcode.toml"

	EnvLogLevel     = "KIDCODE_LOG_LEVEL"
	EnvStore        = "KIDCODE_STORE"
	EnvMaxCallDepth = "KIDCODE_MAX_CALL_DEPTH"
)

type TurtleConfig struct {
	OriginX int    `toml:"origin_x"`
	OriginY int    `toml:"origin_y"`
	Color   string `toml:"color"`
}

type EvalConfig struct {
	MaxCallDepth int `toml:"max_call_depth"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type StoreConfig struct {
	DSN string `toml:"dsn"`
}

type TraceConfig struct {
	Out string `toml:"out"`
}

// Configuration is the merged result of defaults, the TOML file, the environment and
// command line flags, applied in that order.
type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	DebugJsonAST bool `toml:"-"`
	DebugTxtAST  bool `toml:"-"`

	Turtle TurtleConfig `toml:"turtle"`
	Eval   EvalConfig   `toml:"eval"`
	Log    LogConfig    `toml:"log"`
	Store  StoreConfig  `toml:"store"`
	Trace  TraceConfig  `toml:"trace"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Turtle: TurtleConfig{OriginX: 250, OriginY: 250, Color: "blue"},
		Eval:   EvalConfig{MaxCallDepth: 1000},
		Log:    LogConfig{Level: "none"},
	}
}

// LoadConfiguration reads path over the defaults and applies environment overrides.
// A missing file is only an error when required is set.
func LoadConfiguration(path string, required bool) (Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return cfg, fmt.Errorf("config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func (c *Configuration) ApplyEnv() {
	c.Log.Level = env.Str(EnvLogLevel, c.Log.Level)
	c.Store.DSN = env.Str(EnvStore, c.Store.DSN)
	c.Eval.MaxCallDepth = env.Int(EnvMaxCallDepth, c.Eval.MaxCallDepth)
}

func (c *Configuration) Validate() error {
	if c.Eval.MaxCallDepth <= 0 {
		return fmt.Errorf("max_call_depth must be positive, got %d", c.Eval.MaxCallDepth)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "none", "":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

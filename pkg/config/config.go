package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix starts every environment variable read by Load
const EnvPrefix = "PAGEMOD_"

// envKeys maps environment variable names, without EnvPrefix and lowercased,
// to configuration keys. Other PAGEMOD_* variables are ignored.
var envKeys = map[string]string{
	"log_verbosity":         "log.verbosity",
	"defaults_script_phase": "defaults.script_phase",
	"defaults_attach_to":    "defaults.attach_to",
	"definition_files":      "definition_files",
}

// Config is the engine configuration
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Defaults DefaultsConfig `koanf:"defaults"`
	// Definitions are declared inline in the config file
	Definitions []map[string]interface{} `koanf:"definitions"`
	// DefinitionFiles name files holding one definition each. Relative paths
	// are resolved against the config file's directory.
	DefinitionFiles []string `koanf:"definition_files"`

	// Path is the config file that was loaded, empty when none was found
	Path string `koanf:"-"`
}

// LogConfig configures logging.SetupLogger
type LogConfig struct {
	Verbosity int `koanf:"verbosity"`
}

// Setup configures the global logger from cfg.Log
func Setup(cfg *Config) {
	if cfg == nil {
		return
	}
	logging.SetupLogger(cfg.Log.Verbosity)
}

// DefaultsConfig supplies options missing from a definition
type DefaultsConfig struct {
	ScriptPhase string   `koanf:"script_phase"`
	AttachTo    []string `koanf:"attach_to"`
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// DefaultPath returns $XDG_CONFIG_HOME/pagemod/pagemod.toml
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, logging.AppDirName, logging.AppDirName+".toml")
}

// Load reads the configuration. An empty path loads DefaultPath when it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of values keyed by dotted
// configuration keys, such as "log.verbosity".
func LoadWithOverrides(path string, overrides map[string]interface{}) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Config file
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	loaded := ""
	if _, err := os.Stat(path); err == nil {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", path).
				WithDetail("path", path)
		}
		loaded = path
	} else if explicit {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path).
			WithDetail("path", path)
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.ToLower(strings.TrimPrefix(s, EnvPrefix))]
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	// 4. Overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "failed to unmarshal configuration")
	}
	cfg.Path = loaded

	if loaded != "" {
		for i, f := range cfg.DefinitionFiles {
			if !filepath.IsAbs(f) {
				cfg.DefinitionFiles[i] = filepath.Join(filepath.Dir(loaded), f)
			}
		}
	}

	logger.Debug().
		Str("path", loaded).
		Int("definitions", len(cfg.Definitions)).
		Int("definitionFiles", len(cfg.DefinitionFiles)).
		Msg("Configuration loaded")
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, errors.Newf(errors.ErrConfigParse, "unsupported config format: %s", path).
		WithDetail("path", path)
}

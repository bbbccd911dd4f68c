package config

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/arthur-debert/pagemod/pkg/pagemod"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Definition keys. Every list-valued key also accepts a single string.
const (
	KeyName          = "name"
	KeyRules         = "rules"
	KeyScript        = "script"
	KeyScriptFile    = "script_file"
	KeyStyle         = "style"
	KeyStyleFile     = "style_file"
	KeyScriptOptions = "script_options"
	KeyScriptPhase   = "script_phase"
	KeyAttachTo      = "attach_to"
)

var knownKeys = map[string]bool{
	KeyName: true, KeyRules: true, KeyScript: true, KeyScriptFile: true,
	KeyStyle: true, KeyStyleFile: true, KeyScriptOptions: true,
	KeyScriptPhase: true, KeyAttachTo: true,
}

// LoadDefinitionFile reads one raw definition from a .toml, .yaml or .yml
// file on fs.
func LoadDefinitionFile(fs afero.Fs, path string) (map[string]interface{}, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read definition file %s", path).
			WithDetail("path", path)
	}

	raw := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, errors.Newf(errors.ErrConfigParse, "unsupported definition format: %s", path).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse definition file %s", path).
			WithDetail("path", path)
	}
	if _, ok := raw[KeyName]; !ok {
		raw[KeyName] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return raw, nil
}

// DecodeDefinition converts a raw definition into pagemod options, filling
// the phase and attachment policy from defaults when absent. Shape errors
// are CONFIG_INVALID.
func DecodeDefinition(raw map[string]interface{}, defaults DefaultsConfig) (pagemod.Options, error) {
	var opts pagemod.Options
	name := nameOf(raw)

	for key := range raw {
		if !knownKeys[key] {
			return opts, invalid(name, key, "unknown option")
		}
	}

	lists := []struct {
		key  string
		dest *[]string
	}{
		{KeyRules, &opts.Rules},
		{KeyScript, &opts.Script},
		{KeyScriptFile, &opts.ScriptFile},
		{KeyStyle, &opts.Style},
		{KeyStyleFile, &opts.StyleFile},
	}
	for _, l := range lists {
		v, ok := raw[l.key]
		if !ok {
			continue
		}
		values, ok := stringList(v)
		if !ok {
			return opts, invalid(name, l.key, "must be a string or an array of strings")
		}
		*l.dest = values
	}

	if v, ok := raw[KeyScriptOptions]; ok {
		m, ok := stringMap(v)
		if !ok {
			return opts, invalid(name, KeyScriptOptions, "must be a table")
		}
		opts.ScriptOptions = m
	}

	phase := defaults.ScriptPhase
	if v, ok := raw[KeyScriptPhase]; ok {
		s, ok := v.(string)
		if !ok {
			return opts, invalid(name, KeyScriptPhase, "must be a string")
		}
		phase = s
	}
	opts.ScriptPhase = pagemod.Phase(phase)

	attach := defaults.AttachTo
	if v, ok := raw[KeyAttachTo]; ok {
		values, ok := stringList(v)
		if !ok {
			return opts, invalid(name, KeyAttachTo, "must be a string or an array of strings")
		}
		attach = values
	}
	for _, a := range attach {
		opts.AttachTo = append(opts.AttachTo, pagemod.Attachment(a))
	}

	return opts, nil
}

// Apply creates a definition for every inline definition and definition file
// in cfg, in that order. When one fails, those already created are disposed.
// The global logger is configured from cfg.Log first.
func Apply(m *pagemod.Manager, cfg *Config, fs afero.Fs) ([]*pagemod.Definition, error) {
	Setup(cfg)
	logger := logging.GetLogger("config")
	done := logging.LogOperationStart(logger, "apply")
	defer done()

	if fs == nil {
		fs = afero.NewOsFs()
	}

	raws := append([]map[string]interface{}(nil), cfg.Definitions...)
	for _, path := range cfg.DefinitionFiles {
		raw, err := LoadDefinitionFile(fs, path)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}

	var defs []*pagemod.Definition
	rollback := func() {
		for _, d := range defs {
			d.Dispose()
		}
	}

	for _, raw := range raws {
		opts, err := DecodeDefinition(raw, cfg.Defaults)
		if err != nil {
			rollback()
			return nil, err
		}

		name := nameOf(raw)
		opts.OnError = func(err error) {
			logger.Warn().Err(err).Str("definition", name).Msg("Content script error")
		}
		opts.OnAttach = func(w host.Worker) {
			logger.Debug().Str("definition", name).Str("worker", w.ID()).Msg("Worker attached")
		}

		def, err := m.NewDefinition(opts)
		if err != nil {
			rollback()
			var pmErr *errors.PagemodError
			if stderrors.As(err, &pmErr) {
				return nil, pmErr.WithDetail("definition", name)
			}
			return nil, err
		}
		logger.Info().Str("definition", name).Str("id", def.ID()).Msg("Definition applied")
		defs = append(defs, def)
	}
	return defs, nil
}

func nameOf(raw map[string]interface{}) string {
	if s, ok := raw[KeyName].(string); ok && s != "" {
		return s
	}
	return "unnamed"
}

func invalid(name, key, msg string) error {
	return errors.Newf(errors.ErrConfigInvalid, "definition %q: `%s` %s", name, key, msg).
		WithDetail("definition", name).
		WithDetail("option", key)
}

func stringList(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []string:
		return append([]string(nil), t...), true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func stringMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

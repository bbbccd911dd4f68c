package config_test

import (
	"testing"

	"github.com/arthur-debert/pagemod/pkg/config"
	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/pagemod"
	"github.com/arthur-debert/pagemod/pkg/testutil"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = config.DefaultsConfig{ScriptPhase: "end", AttachTo: []string{"top", "frame"}}

func TestLoadDefinitionFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/mods/news.toml", `
rules = ["news.example.com"]
script_phase = "start"

[script_options]
theme = "dark"
`)
	testutil.WriteFile(t, fs, "/mods/blog.yml", `
name: blogging
rules: blog.example.com
style_file: [file:///css/blog.css]
`)

	raw, err := config.LoadDefinitionFile(fs, "/mods/news.toml")
	require.NoError(t, err)
	assert.Equal(t, "news", raw["name"], "name defaults to the file name")
	assert.Equal(t, map[string]interface{}{"theme": "dark"}, raw["script_options"])

	raw, err = config.LoadDefinitionFile(fs, "/mods/blog.yml")
	require.NoError(t, err)
	assert.Equal(t, "blogging", raw["name"])
	assert.Equal(t, "blog.example.com", raw["rules"])

	_, err = config.LoadDefinitionFile(fs, "/mods/missing.toml")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))

	testutil.WriteFile(t, fs, "/mods/notes.txt", "rules = 1")
	_, err = config.LoadDefinitionFile(fs, "/mods/notes.txt")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestDecodeDefinition(t *testing.T) {
	opts, err := config.DecodeDefinition(map[string]interface{}{
		"name":           "all",
		"rules":          "example.com",
		"script":         []interface{}{"a()", "b()"},
		"script_file":    "file:///mods/main.js",
		"style":          []string{"p{}"},
		"style_file":     []interface{}{"data:text/css,a%7B%7D"},
		"script_options": map[string]interface{}{"level": int64(2)},
		"attach_to":      "top",
	}, defaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com"}, opts.Rules)
	assert.Equal(t, []string{"a()", "b()"}, opts.Script)
	assert.Equal(t, []string{"file:///mods/main.js"}, opts.ScriptFile)
	assert.Equal(t, []string{"p{}"}, opts.Style)
	assert.Equal(t, []string{"data:text/css,a%7B%7D"}, opts.StyleFile)
	assert.Equal(t, map[string]interface{}{"level": int64(2)}, opts.ScriptOptions)
	assert.Equal(t, []pagemod.Attachment{pagemod.AttachTop}, opts.AttachTo)
	assert.Equal(t, pagemod.PhaseEnd, opts.ScriptPhase, "phase from defaults")
}

func TestDecodeDefinition_InvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		key  string
	}{
		{"rules number", map[string]interface{}{"rules": 42}, "rules"},
		{"script mixed list", map[string]interface{}{"script": []interface{}{"a()", 1}}, "script"},
		{"style table", map[string]interface{}{"style": map[string]interface{}{}}, "style"},
		{"options list", map[string]interface{}{"script_options": []interface{}{"x"}}, "script_options"},
		{"phase number", map[string]interface{}{"script_phase": 1}, "script_phase"},
		{"attach number", map[string]interface{}{"attach_to": 1}, "attach_to"},
		{"unknown key", map[string]interface{}{"include": "example.com"}, "include"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.DecodeDefinition(tt.raw, defaults)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
			assert.Equal(t, tt.key, errors.GetErrorDetails(err)["option"])
		})
	}
}

// newApplyManager keeps the log file written by Apply inside the test
func newApplyManager(t *testing.T) (*testutil.Host, *pagemod.Manager) {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	h := testutil.NewHost()
	m, err := pagemod.NewManager(h.Bundle())
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return h, m
}

func TestApply(t *testing.T) {
	h, m := newApplyManager(t)

	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/mods/late.yaml", `
rules: [example.org]
script: late()
`)

	cfg := &config.Config{
		Defaults: config.DefaultsConfig{ScriptPhase: "start"},
		Definitions: []map[string]interface{}{
			{"name": "early", "rules": "example.com", "style": "a{color:red}"},
		},
		DefinitionFiles: []string{"/mods/late.yaml"},
	}

	defs, err := config.Apply(m, cfg, fs)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, []string{"example.com"}, defs[0].Rules())
	assert.NotEmpty(t, defs[0].StyleSheetID())
	assert.Equal(t, pagemod.PhaseStart, defs[1].ScriptPhase())
	assert.Equal(t, pagemod.Attachments{pagemod.AttachTop, pagemod.AttachFrame}, defs[1].AttachTo())

	_, doc := h.NewTab("http://example.org/")
	workers := h.Workers.For(doc)
	require.Len(t, workers, 1)
	assert.Equal(t, []string{"late()"}, workers[0].Options().Script)
}

func TestApply_RollsBack(t *testing.T) {
	h, m := newApplyManager(t)

	cfg := &config.Config{
		Defaults: defaults,
		Definitions: []map[string]interface{}{
			{"name": "good", "rules": "example.com", "style": "a{}"},
			{"name": "bad", "rules": "example.org", "attach_to": "existing"},
		},
	}

	_, err := config.Apply(m, cfg, afero.NewMemMapFs())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
	assert.Equal(t, "bad", errors.GetErrorDetails(err)["definition"])
	assert.Empty(t, m.Definitions())
	assert.Empty(t, m.Rules())
	assert.Empty(t, h.Styles.IDs())
}

func TestApply_NamesFailingDefinition(t *testing.T) {
	h, m := newApplyManager(t)

	cfg := &config.Config{
		Defaults: defaults,
		Definitions: []map[string]interface{}{
			{"name": "first", "rules": "example.com", "style": "a{}"},
			{"name": "missing-style", "rules": "example.org", "style_file": "/styles/gone.css"},
		},
	}

	_, err := config.Apply(m, cfg, afero.NewMemMapFs())
	require.Error(t, err)
	assert.Equal(t, errors.ErrIO, errors.GetErrorCode(err))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, "missing-style", details["definition"])
	assert.Equal(t, "/styles/gone.css", details["url"])
	assert.Empty(t, m.Definitions())
	assert.Empty(t, h.Styles.IDs())
}

func TestApply_ConfiguresLogging(t *testing.T) {
	_, m := newApplyManager(t)

	cfg := &config.Config{Log: config.LogConfig{Verbosity: 2}, Defaults: defaults}
	_, err := config.Apply(m, cfg, afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	config.Setup(&config.Config{Log: config.LogConfig{Verbosity: 1}})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

// Package config loads pagemod settings and declarative page modification
// definitions.
//
// Settings are layered with koanf: built-in defaults, then the config file
// (TOML or YAML), then PAGEMOD_* environment variables, then programmatic
// overrides. Definitions come inline from the config file or from separate
// definition files, and Apply turns them into live pagemod definitions.
package config

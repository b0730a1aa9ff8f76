// Package config carries the runtime-tunable constants and options of
// the CORE (SPEC_FULL §1 "Configuration"), the way the teacher's
// internal/config/constants.go carries funxy's own (Version, source
// file extensions, built-in names).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the current pyjox version.
var Version = "0.1.0"

// RuntimeOptions are the tunables spec §9's Open Questions left to
// implementation discretion (max frame depth, max value-stack size,
// whether a DeprecationWarning raises instead of being ignored),
// decoded from an optional pyjox.yaml the way the teacher decodes
// structured config data with yaml.v3 in internal/evaluator/
// builtins_yaml.go.
type RuntimeOptions struct {
	MaxFrameDepth    int    `yaml:"max_frame_depth"`
	MaxStackSize     int    `yaml:"max_stack_size"`
	WarningsAsErrors bool   `yaml:"warnings_as_errors"`
	CodeCachePath    string `yaml:"code_cache_path"`
}

// DefaultRuntimeOptions mirrors pyframe.MaxFrameDepth and a generous
// value-stack ceiling; these are the values in force until a
// pyjox.yaml overrides them. CodeCachePath defaults to empty, meaning
// a host runs with no cross-run code-object cache until it opts in.
func DefaultRuntimeOptions() RuntimeOptions {
	return RuntimeOptions{
		MaxFrameDepth:    2000,
		MaxStackSize:     1 << 20,
		WarningsAsErrors: false,
		CodeCachePath:    "",
	}
}

// LoadRuntimeOptions reads path (if it exists) and overlays it onto
// DefaultRuntimeOptions. A missing file is not an error -- pyjox.yaml
// is optional, same as the teacher never requires its own config file
// to be present.
func LoadRuntimeOptions(path string) (RuntimeOptions, error) {
	opts := DefaultRuntimeOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

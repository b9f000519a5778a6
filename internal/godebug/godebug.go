// Package godebug reads debug settings from the $CLAYDEBUG environment
// variable, a comma-separated list of name=value pairs in the style of
// $GODEBUG.
package godebug

import (
	"os"
	"strings"
)

// EnvVar is the environment variable holding the settings.
const EnvVar = "CLAYDEBUG"

// A Setting is a single setting in the $CLAYDEBUG environment variable.
type Setting struct {
	name string
}

// New returns a new Setting for the $CLAYDEBUG setting with the given name.
func New(name string) *Setting {
	return &Setting{name: name}
}

// Name returns the name of the setting.
func (s *Setting) Name() string {
	return s.name
}

// String returns a printable form for the setting: name=value.
func (s *Setting) String() string {
	return s.name + "=" + s.Value()
}

// Value returns the current value for the setting s.
// The environment is read on every call; when a name appears more than
// once the last value wins.
func (s *Setting) Value() string {
	var value string
	for _, kv := range strings.Split(os.Getenv(EnvVar), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if ok && k == s.name {
			value = v
		}
	}
	return value
}

// Enabled reports whether the setting's value is "1".
func (s *Setting) Enabled() bool {
	return s.Value() == "1"
}

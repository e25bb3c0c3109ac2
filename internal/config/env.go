package config

import (
	"os"
	"strings"

	"ragchat/internal/domain"
)

// Env is an immutable snapshot of environment-style key/value configuration.
type Env map[string]string

// FromOS captures the current process environment.
func FromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Get returns the trimmed value of key, or "" if it is unset.
func (e Env) Get(key string) string {
	return strings.TrimSpace(e[key])
}

// Has reports whether key is set to a non-empty value.
func (e Env) Has(key string) bool {
	return e.Get(key) != ""
}

// Require fails with a ConfigurationError naming every missing or empty key.
func (e Env) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !e.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &domain.ConfigurationError{Keys: missing}
	}
	return nil
}

// RequireAny fails with a ConfigurationError unless at least one key is set.
func (e Env) RequireAny(keys ...string) error {
	for _, k := range keys {
		if e.Has(k) {
			return nil
		}
	}
	return &domain.ConfigurationError{Keys: keys, AnyOf: true}
}

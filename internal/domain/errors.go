package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports required configuration keys that are missing or
// empty, or a config file that could not be used (Err).
// With AnyOf set, at least one of Keys was required.
type ConfigurationError struct {
	Keys  []string
	AnyOf bool
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	if e.AnyOf {
		return fmt.Sprintf("no provider configured: set one of %s", strings.Join(e.Keys, ", "))
	}
	if len(e.Keys) == 1 {
		return fmt.Sprintf("environment variable %s is not set", e.Keys[0])
	}
	return fmt.Sprintf("environment variables %s are not set", strings.Join(e.Keys, ", "))
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DocumentNotFoundError reports a source document path that does not exist.
type DocumentNotFoundError struct {
	Path string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("file %s was not found", e.Path)
}

// ProviderError wraps a failed call to an embedding, chat or storage backend.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// UnknownError wraps any failure outside the known taxonomy.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// NewProviderError returns nil when err is nil.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// Classify returns err unchanged if it belongs to the taxonomy, otherwise it
// wraps it in UnknownError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		cfgErr  *ConfigurationError
		docErr  *DocumentNotFoundError
		provErr *ProviderError
		unkErr  *UnknownError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &docErr), errors.As(err, &provErr), errors.As(err, &unkErr):
		return err
	}
	return &UnknownError{Err: err}
}

// IsFatal reports whether err must stop the process instead of a single turn.
func IsFatal(err error) bool {
	var (
		cfgErr *ConfigurationError
		docErr *DocumentNotFoundError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &docErr)
}

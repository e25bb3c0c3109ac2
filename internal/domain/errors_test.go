package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError_Message(t *testing.T) {
	assert.Equal(t, "environment variable X is not set", (&ConfigurationError{Keys: []string{"X"}}).Error())
	assert.Equal(t, "environment variables X, Y are not set", (&ConfigurationError{Keys: []string{"X", "Y"}}).Error())
	assert.Contains(t, (&ConfigurationError{Keys: []string{"A", "B"}, AnyOf: true}).Error(), "one of A, B")

	parse := errors.New("yaml: line 1: did not find expected ',' or ']'")
	err := &ConfigurationError{Err: parse}
	assert.Equal(t, "configuration: yaml: line 1: did not find expected ',' or ']'", err.Error())
	assert.ErrorIs(t, err, parse)
	assert.True(t, IsFatal(err))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	cfg := &ConfigurationError{Keys: []string{"X"}}
	assert.Same(t, cfg, Classify(cfg))

	prov := fmt.Errorf("embedding: %w", NewProviderError("openai", "embed", errors.New("quota")))
	assert.Equal(t, prov, Classify(prov))

	raw := errors.New("boom")
	got := Classify(raw)
	var unk *UnknownError
	require.ErrorAs(t, got, &unk)
	assert.ErrorIs(t, got, raw)
}

func TestNewProviderError(t *testing.T) {
	assert.Nil(t, NewProviderError("openai", "embed", nil))

	base := errors.New("401 unauthorized")
	err := NewProviderError("google", "invoke", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "google invoke: 401 unauthorized", err.Error())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(&ConfigurationError{Keys: []string{"X"}}))
	assert.True(t, IsFatal(fmt.Errorf("ingest: %w", &DocumentNotFoundError{Path: "a.pdf"})))
	assert.False(t, IsFatal(&ProviderError{Provider: "openai", Op: "embed", Err: errors.New("x")}))
	assert.False(t, IsFatal(errors.New("x")))
}

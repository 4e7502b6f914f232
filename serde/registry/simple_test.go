package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/harvest/serde"
)

func TestSimpleRegistry_Register(t *testing.T) {
	registry := NewSimpleRegistry()
	registry.Register(serde.FormatJSON, fakeEngine{})

	require.Equal(t, fakeEngine{}, registry.Get(serde.FormatJSON))
}

func TestSimpleRegistry_Get(t *testing.T) {
	registry := NewSimpleRegistry()

	engine := registry.Get(serde.Format("unknown"))

	_, err := engine.Encode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not supported")

	_, err = engine.Decode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not supported")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeEngine struct {
	serde.FormatEngine
}

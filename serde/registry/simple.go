// Package registry defines the format registry used by the data models to
// look up the engine of a serialization format.
package registry

import (
	"go.dedis.ch/harvest/serde"
	"golang.org/x/xerrors"
)

// Registry is the interface of a collection of format engines.
type Registry interface {
	// Register stores the engine for the given format.
	Register(format serde.Format, engine serde.FormatEngine)

	// Get returns the engine of the format. It always returns an engine, but
	// it may be one that always fails if the format is unknown.
	Get(format serde.Format) serde.FormatEngine
}

// SimpleRegistry is a default implementation of the Registry interface.
//
// - implements registry.Registry
type SimpleRegistry struct {
	store map[serde.Format]serde.FormatEngine
}

// NewSimpleRegistry returns a new empty registry.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		store: make(map[serde.Format]serde.FormatEngine),
	}
}

// Register implements registry.Registry. It stores the engine for the given
// format, overwriting any previous one.
func (r *SimpleRegistry) Register(format serde.Format, engine serde.FormatEngine) {
	r.store[format] = engine
}

// Get implements registry.Registry. It returns the engine associated with the
// format if it exists, otherwise an engine that always returns an error, so
// that the caller can fail with a meaningful message without checking the
// format existence.
func (r *SimpleRegistry) Get(format serde.Format) serde.FormatEngine {
	engine := r.store[format]
	if engine == nil {
		return emptyFormat{format: format}
	}

	return engine
}

// emptyFormat is a format engine returned for unknown formats.
//
// - implements serde.FormatEngine
type emptyFormat struct {
	format serde.Format
}

// Encode implements serde.FormatEngine. It always returns an error.
func (f emptyFormat) Encode(serde.Context, serde.Message) ([]byte, error) {
	return nil, xerrors.Errorf("format '%s' is not supported", f.format)
}

// Decode implements serde.FormatEngine. It always returns an error.
func (f emptyFormat) Decode(serde.Context, []byte) (serde.Message, error) {
	return nil, xerrors.Errorf("format '%s' is not supported", f.format)
}

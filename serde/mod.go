// Package serde defines the primitives to serialize and deserialize the data
// models of the module.
//
// A data model implements the Message interface and delegates the actual
// encoding to a format engine registered for the format of the context. This
// keeps the models independent of the wire format so that a new format can be
// supported by registering an engine, without touching the models.
package serde

import "io"

// Message is the interface a data model should implement to be serialized.
type Message interface {
	// Serialize returns the serialized form of the message according to the
	// format of the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to deserialize a data model from its
// serialized form.
type Factory interface {
	// Deserialize returns the message instantiated from the data.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is the interface to implement to write a deterministic binary
// representation of a data model, typically as the input of a digest.
type Fingerprinter interface {
	// Fingerprint writes itself to the writer in a deterministic way.
	Fingerprint(writer io.Writer) error
}

// Format is the identifier of a serialization format.
type Format string

const (
	// FormatJSON is the identifier of the JSON format.
	FormatJSON Format = "JSON"

	// UnsupportedFormat is the identifier of a format that always fails.
	UnsupportedFormat Format = "UNSUPPORTED"
)

// FormatEngine is the interface to implement to encode and decode a specific
// data model in a specific format.
type FormatEngine interface {
	// Encode returns the serialized form of the message.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message instantiated from the data.
	Decode(ctx Context, data []byte) (Message, error)
}

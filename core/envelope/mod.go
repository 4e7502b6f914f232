// Package envelope implements the tamper-evident records exchanged between
// the actors of the supply chain.
//
// A record is stamped with the creation time and the schema version, then
// authenticated with a keyed hash computed over the canonical serialization
// of the stamped record, using a secret shared by the issuer and the
// verifier. The resulting envelope is a single self-contained string that can
// travel inside a QR code or a URL parameter, and that can be verified later
// without any external lookup.
//
// Verification never panics and never returns an untyped failure: every way
// an envelope can be refused is reported as an InvalidError carrying one of
// the Invalidity kinds, so that a caller can react differently to an active
// tampering signal and to routine staleness.
package envelope

import (
	"time"

	"go.dedis.ch/harvest/serde"
	"go.dedis.ch/harvest/serde/registry"
	"golang.org/x/xerrors"
)

// Version is the schema version stamped into the payloads. Envelopes from a
// different version are refused so that incompatible producers are detected.
const Version = "1.0"

// MaxAge is the default validity window of an envelope. The age is evaluated
// at verification time against the creation timestamp.
const MaxAge = 30 * 24 * time.Hour

var (
	payloadFormats  = registry.NewSimpleRegistry()
	envelopeFormats = registry.NewSimpleRegistry()
)

// RegisterPayloadFormat registers the engine for the provided format.
func RegisterPayloadFormat(f serde.Format, e serde.FormatEngine) {
	payloadFormats.Register(f, e)
}

// RegisterEnvelopeFormat registers the engine for the provided format.
func RegisterEnvelopeFormat(f serde.Format, e serde.FormatEngine) {
	envelopeFormats.Register(f, e)
}

// Record is the domain content of an envelope. The identifier, the actor and
// the kind are mandatory; everything else travels in the open set of
// attributes chosen by the caller.
type Record struct {
	// ID uniquely identifies the subject of the record, typically a produce
	// batch.
	ID string

	// Actor is the principal vouching for the record, typically the producer.
	Actor string

	// Kind classifies the record, typically the crop type.
	Kind string

	// Attrs holds the caller-defined extension fields.
	Attrs map[string]string
}

// Validate returns an error if one of the mandatory fields is missing.
func (r Record) Validate() error {
	if r.ID == "" {
		return xerrors.New("missing record identifier")
	}

	if r.Actor == "" {
		return xerrors.New("missing record actor")
	}

	if r.Kind == "" {
		return xerrors.New("missing record kind")
	}

	return nil
}

// Payload is a record stamped with its creation time and the schema version.
// It is immutable after signing: any later difference in its serialization
// invalidates the signature.
//
// - implements serde.Message
type Payload struct {
	Record

	// Timestamp is the creation time in milliseconds since the Unix epoch.
	Timestamp int64

	// Version is the schema version of the producer.
	Version string
}

// Serialize implements serde.Message. It returns the serialized data of the
// payload.
func (p Payload) Serialize(ctx serde.Context) ([]byte, error) {
	format := payloadFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, p)
	if err != nil {
		return nil, xerrors.Errorf("encoding failed: %v", err)
	}

	return data, nil
}

// Age returns the age of the payload relative to the given instant.
func (p Payload) Age(now time.Time) time.Duration {
	created := time.UnixMilli(p.Timestamp)

	return now.Sub(created)
}

// PayloadFactory is a factory to deserialize payloads.
//
// - implements serde.Factory
type PayloadFactory struct{}

// Deserialize implements serde.Factory. It populates the payload from the
// data if appropriate, otherwise it returns an error.
func (f PayloadFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := payloadFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("decoding failed: %v", err)
	}

	return msg, nil
}

// PayloadOf returns the payload from the data, or an error if the data does
// not have the expected shape.
func (f PayloadFactory) PayloadOf(ctx serde.Context, data []byte) (Payload, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return Payload{}, err
	}

	payload, ok := msg.(Payload)
	if !ok {
		return Payload{}, xerrors.Errorf("invalid payload of type '%T'", msg)
	}

	return payload, nil
}

// Envelope is the outer wire structure combining the serialized payload with
// its signature. The payload bytes are kept verbatim so that the signature
// can be checked over exactly what the issuer signed.
//
// - implements serde.Message
type Envelope struct {
	data      []byte
	signature string
}

// NewEnvelope returns an envelope from the serialized payload and its
// signature.
func NewEnvelope(data []byte, signature string) Envelope {
	return Envelope{
		data:      data,
		signature: signature,
	}
}

// GetData returns the serialized payload.
func (e Envelope) GetData() []byte {
	return append([]byte{}, e.data...)
}

// GetSignature returns the hexadecimal signature of the payload.
func (e Envelope) GetSignature() string {
	return e.signature
}

// Serialize implements serde.Message. It returns the serialized data of the
// envelope.
func (e Envelope) Serialize(ctx serde.Context) ([]byte, error) {
	format := envelopeFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, e)
	if err != nil {
		return nil, xerrors.Errorf("encoding failed: %v", err)
	}

	return data, nil
}

// EnvelopeFactory is a factory to deserialize envelopes.
//
// - implements serde.Factory
type EnvelopeFactory struct{}

// Deserialize implements serde.Factory. It populates the envelope from the
// data if appropriate, otherwise it returns an error.
func (f EnvelopeFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := envelopeFormats.Get(ctx.GetFormat())

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("decoding failed: %v", err)
	}

	return msg, nil
}

// EnvelopeOf returns the envelope from the data, or an error if the data is
// not a serialized envelope.
func (f EnvelopeFactory) EnvelopeOf(ctx serde.Context, data []byte) (Envelope, error) {
	msg, err := f.Deserialize(ctx, data)
	if err != nil {
		return Envelope{}, err
	}

	env, ok := msg.(Envelope)
	if !ok {
		return Envelope{}, xerrors.Errorf("invalid envelope of type '%T'", msg)
	}

	return env, nil
}

// Package json registers the JSON format engines for the payload and the
// envelope messages.
package json

import (
	"encoding/json"

	"go.dedis.ch/harvest/core/envelope"
	"go.dedis.ch/harvest/serde"
	"golang.org/x/xerrors"
)

func init() {
	envelope.RegisterPayloadFormat(serde.FormatJSON, payloadFormat{})
	envelope.RegisterEnvelopeFormat(serde.FormatJSON, envFormat{})
}

// PayloadJSON is the JSON message of a stamped record.
type PayloadJSON struct {
	ID        string            `json:"id"`
	Actor     string            `json:"actor"`
	Kind      string            `json:"kind"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Version   string            `json:"version"`
}

// EnvelopeJSON is the JSON message of an envelope. The payload is kept as raw
// bytes so that the signature stays bound to the exact data of the issuer.
type EnvelopeJSON struct {
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// payloadFormat is the JSON format engine for payloads.
//
// - implements serde.FormatEngine
type payloadFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the
// provided payload if appropriate, otherwise it returns an error.
func (payloadFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	payload, ok := msg.(envelope.Payload)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	m := PayloadJSON{
		ID:        payload.ID,
		Actor:     payload.Actor,
		Kind:      payload.Kind,
		Attrs:     payload.Attrs,
		Timestamp: payload.Timestamp,
		Version:   payload.Version,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the payload from the JSON
// data if appropriate, otherwise it returns an error.
func (payloadFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := PayloadJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	payload := envelope.Payload{
		Record: envelope.Record{
			ID:    m.ID,
			Actor: m.Actor,
			Kind:  m.Kind,
			Attrs: m.Attrs,
		},
		Timestamp: m.Timestamp,
		Version:   m.Version,
	}

	return payload, nil
}

// envFormat is the JSON format engine for envelopes.
//
// - implements serde.FormatEngine
type envFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the
// provided envelope if appropriate, otherwise it returns an error.
func (envFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	env, ok := msg.(envelope.Envelope)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	m := EnvelopeJSON{
		Data:      env.GetData(),
		Signature: env.GetSignature(),
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the envelope from the JSON
// data if appropriate, otherwise it returns an error.
func (envFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := EnvelopeJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	return envelope.NewEnvelope(m.Data, m.Signature), nil
}

package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/harvest/core/envelope"
	sjson "go.dedis.ch/harvest/serde/json"
)

func TestPayloadFormat_Encode(t *testing.T) {
	ctx := sjson.NewContext()

	payload := envelope.Payload{
		Record: envelope.Record{
			ID:    "KR12345",
			Actor: "Ramesh Kumar",
			Kind:  "rice",
		},
		Timestamp: 1705276800000,
		Version:   "1.0",
	}

	data, err := payloadFormat{}.Encode(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, `{"id":"KR12345","actor":"Ramesh Kumar","kind":"rice",`+
		`"timestamp":1705276800000,"version":"1.0"}`, string(data))

	_, err = payloadFormat{}.Encode(ctx, fakeMessage{})
	require.EqualError(t, err,
		"unsupported message of type 'json.fakeMessage'")
}

func TestPayloadFormat_Decode(t *testing.T) {
	ctx := sjson.NewContext()

	payload := envelope.Payload{
		Record: envelope.Record{
			ID:    "KR12345",
			Actor: "Ramesh Kumar",
			Kind:  "rice",
			Attrs: map[string]string{"location": "Punjab"},
		},
		Timestamp: 1705276800000,
		Version:   "1.0",
	}

	data, err := payloadFormat{}.Encode(ctx, payload)
	require.NoError(t, err)

	msg, err := payloadFormat{}.Decode(ctx, data)
	require.NoError(t, err)
	require.Equal(t, payload, msg)

	_, err = payloadFormat{}.Decode(ctx, []byte(`malformed`))
	require.Error(t, err)
}

func TestEnvFormat_Encode(t *testing.T) {
	ctx := sjson.NewContext()

	env := envelope.NewEnvelope([]byte(`{"id":"KR12345"}`), "deadbeef")

	data, err := envFormat{}.Encode(ctx, env)
	require.NoError(t, err)
	require.Equal(t, `{"data":{"id":"KR12345"},"signature":"deadbeef"}`,
		string(data))

	_, err = envFormat{}.Encode(ctx, fakeMessage{})
	require.EqualError(t, err,
		"unsupported message of type 'json.fakeMessage'")
}

func TestEnvFormat_Decode(t *testing.T) {
	ctx := sjson.NewContext()

	msg, err := envFormat{}.Decode(ctx,
		[]byte(`{"data":{"id":"KR12345"},"signature":"deadbeef"}`))
	require.NoError(t, err)

	env, ok := msg.(envelope.Envelope)
	require.True(t, ok)
	require.Equal(t, `{"id":"KR12345"}`, string(env.GetData()))
	require.Equal(t, "deadbeef", env.GetSignature())

	_, err = envFormat{}.Decode(ctx, []byte(`malformed`))
	require.Error(t, err)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeMessage struct {
	envelope.Payload
}

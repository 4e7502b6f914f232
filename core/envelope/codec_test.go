package envelope_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/harvest/core/envelope"
	_ "go.dedis.ch/harvest/core/envelope/json"
	"go.dedis.ch/harvest/crypto"
	"go.dedis.ch/harvest/internal/testing/fake"
	"go.dedis.ch/harvest/serde"
	sjson "go.dedis.ch/harvest/serde/json"
)

const testSecret = "test-secret"

func makeRecord() envelope.Record {
	return envelope.Record{
		ID:    "KR12345",
		Actor: "Ramesh Kumar",
		Kind:  "rice",
		Attrs: fake.MakeAttrs(
			"harvestDate", "2024-01-15",
			"location", "Punjab",
		),
	}
}

func TestCodec_Sign_Then_Verify(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	sealed, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	payload, err := codec.Verify(sealed, []byte(testSecret))
	require.NoError(t, err)

	require.Equal(t, "KR12345", payload.ID)
	require.Equal(t, "Ramesh Kumar", payload.Actor)
	require.Equal(t, "rice", payload.Kind)
	require.Equal(t, "2024-01-15", payload.Attrs["harvestDate"])
	require.Equal(t, "Punjab", payload.Attrs["location"])
	require.Equal(t, envelope.Version, payload.Version)
	require.Greater(t, payload.Timestamp, int64(0))
}

func TestCodec_Sign_DistinctInstants(t *testing.T) {
	clock := fake.NewClock(time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC))

	codec := envelope.NewCodec(sjson.NewContext(), envelope.WithClock(clock.Now))

	first, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	clock.Advance(time.Millisecond)

	second, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	// The timestamp is part of the signed bytes, so the same record signed at
	// two different instants yields two different envelopes.
	require.NotEqual(t, first, second)

	_, err = codec.Verify(first, []byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Verify(second, []byte(testSecret))
	require.NoError(t, err)
}

func TestCodec_Sign_Errors(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	_, err := codec.Sign(makeRecord(), nil)
	require.EqualError(t, err, "secret is empty")

	_, err = codec.Sign(envelope.Record{}, []byte(testSecret))
	require.EqualError(t, err, "invalid record: missing record identifier")

	codec = envelope.NewCodec(fake.NewBadContext())

	_, err = codec.Sign(makeRecord(), []byte(testSecret))
	require.EqualError(t, err, "failed to serialize payload: "+
		"encoding failed: format 'UNSUPPORTED' is not supported")

	codec = envelope.NewCodec(sjson.NewContext(),
		envelope.WithKeyedHashFactory(fake.NewKeyedHashFactory(fake.NewBadHash())))

	_, err = codec.Sign(makeRecord(), []byte(testSecret))
	require.EqualError(t, err,
		fake.Err("failed to authenticate payload: failed to write payload"))
}

func TestCodec_Verify_Malformed(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	_, err := codec.Verify("definitely not an envelope", []byte(testSecret))
	requireInvalid(t, err, envelope.MalformedEnvelope)

	// The envelope parses but the payload does not have the expected shape.
	_, err = codec.Verify(`{"data":{"timestamp":"yesterday"},"signature":"ab"}`,
		[]byte(testSecret))
	requireInvalid(t, err, envelope.MalformedEnvelope)
}

func TestCodec_Verify_MissingSignature(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	sealed, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Verify(alter(t, sealed, "signature"), []byte(testSecret))
	requireInvalid(t, err, envelope.MissingSignature)

	_, err = codec.Verify(alter(t, sealed, "data"), []byte(testSecret))
	requireInvalid(t, err, envelope.MissingSignature)
}

func TestCodec_Verify_Tampered(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	sealed, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	// Every mutation of the signed data must be detected.
	for _, field := range []string{"id", "actor", "kind"} {
		mutated := alterData(t, sealed, func(data map[string]interface{}) {
			data[field] = "mallory"
		})

		_, err = codec.Verify(mutated, []byte(testSecret))
		requireInvalid(t, err, envelope.Tampered)
	}

	// A different secret must be detected as well.
	_, err = codec.Verify(sealed, []byte("other-secret"))
	requireInvalid(t, err, envelope.Tampered)

	// So must a corrupted signature.
	_, err = codec.Verify(alterSignature(t, sealed, "zz"), []byte(testSecret))
	requireInvalid(t, err, envelope.Tampered)
}

func TestCodec_Verify_Expired(t *testing.T) {
	ctx := sjson.NewContext()
	codec := envelope.NewCodec(ctx)

	now := time.Now()

	payload := envelope.Payload{
		Record:    makeRecord(),
		Timestamp: now.Add(-29 * 24 * time.Hour).UnixMilli(),
		Version:   envelope.Version,
	}

	// 29 days old is within the validity window.
	_, err := codec.Verify(seal(t, ctx, payload), []byte(testSecret))
	require.NoError(t, err)

	payload.Timestamp = now.Add(-30*24*time.Hour - time.Hour).UnixMilli()

	// More than 30 days old is not, even though the signature is genuine.
	_, err = codec.Verify(seal(t, ctx, payload), []byte(testSecret))
	requireInvalid(t, err, envelope.Expired)
}

func TestCodec_Verify_Incomplete(t *testing.T) {
	ctx := sjson.NewContext()
	codec := envelope.NewCodec(ctx)

	payload := envelope.Payload{
		Record:    makeRecord(),
		Timestamp: time.Now().UnixMilli(),
		Version:   envelope.Version,
	}
	payload.Actor = ""

	_, err := codec.Verify(seal(t, ctx, payload), []byte(testSecret))
	requireInvalid(t, err, envelope.IncompleteRecord)

	payload = envelope.Payload{
		Record:    makeRecord(),
		Timestamp: time.Now().UnixMilli(),
		Version:   "0.9",
	}

	_, err = codec.Verify(seal(t, ctx, payload), []byte(testSecret))
	requireInvalid(t, err, envelope.IncompleteRecord)
}

func TestCodec_Verify_FieldOrder(t *testing.T) {
	codec := envelope.NewCodec(sjson.NewContext())

	sealed, err := codec.Sign(makeRecord(), []byte(testSecret))
	require.NoError(t, err)

	// Reordering the keys of the payload changes its bytes but not its
	// canonical form, so the envelope stays valid.
	reordered := alterData(t, sealed, func(map[string]interface{}) {})
	require.NotEqual(t, sealed, reordered)

	_, err = codec.Verify(reordered, []byte(testSecret))
	require.NoError(t, err)
}

// -----------------------------------------------------------------------------
// Utility functions

func requireInvalid(t *testing.T, err error, expected envelope.Invalidity) {
	t.Helper()

	kind, ok := envelope.InvalidityOf(err)
	require.True(t, ok, "unexpected error: %v", err)
	require.Equal(t, expected, kind)
}

// seal signs the payload as-is with the test secret, which allows the tests
// to craft payloads the codec would refuse to produce.
func seal(t *testing.T, ctx serde.Context, payload envelope.Payload) string {
	t.Helper()

	data, err := payload.Serialize(ctx)
	require.NoError(t, err)

	canonical, err := jcs.Transform(data)
	require.NoError(t, err)

	h := crypto.NewHMACFactory().New([]byte(testSecret))
	h.Write(canonical)

	buffer, err := envelope.NewEnvelope(data, crypto.Hex(h.Sum(nil))).Serialize(ctx)
	require.NoError(t, err)

	return string(buffer)
}

// alter removes a key of the envelope.
func alter(t *testing.T, sealed string, key string) string {
	t.Helper()

	m := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(sealed), &m))

	delete(m, key)

	buffer, err := json.Marshal(m)
	require.NoError(t, err)

	return string(buffer)
}

// alterData rewrites the payload of the envelope after applying the mutation,
// leaving the signature untouched.
func alterData(t *testing.T, sealed string, fn func(data map[string]interface{})) string {
	t.Helper()

	m := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(sealed), &m))

	data := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(m["data"], &data))

	fn(data)

	buffer, err := json.Marshal(data)
	require.NoError(t, err)

	m["data"] = buffer

	buffer, err = json.Marshal(m)
	require.NoError(t, err)

	return string(buffer)
}

func alterSignature(t *testing.T, sealed string, signature string) string {
	t.Helper()

	m := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(sealed), &m))

	buffer, err := json.Marshal(signature)
	require.NoError(t, err)

	m["signature"] = buffer

	buffer, err = json.Marshal(m)
	require.NoError(t, err)

	return string(buffer)
}

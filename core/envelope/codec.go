package envelope

import (
	"time"

	"github.com/gowebpki/jcs"
	"go.dedis.ch/harvest/crypto"
	"go.dedis.ch/harvest/serde"
	"golang.org/x/xerrors"
)

// Codec produces and verifies envelopes. It is stateless: the secret is
// provided with every call and is never retained, so a single codec can serve
// concurrent callers with different keys.
type Codec struct {
	ctx        serde.Context
	keyedFac   crypto.KeyedHashFactory
	clock      func() time.Time
	maxAge     time.Duration
	envFac     EnvelopeFactory
	payloadFac PayloadFactory
}

// CodecOption is the type of options to create a codec.
type CodecOption func(*Codec)

// WithClock is an option to set the time source, which the tests use to
// control the age of the payloads.
func WithClock(clock func() time.Time) CodecOption {
	return func(c *Codec) {
		c.clock = clock
	}
}

// WithMaxAge is an option to set the validity window of the envelopes.
func WithMaxAge(age time.Duration) CodecOption {
	return func(c *Codec) {
		c.maxAge = age
	}
}

// WithKeyedHashFactory is an option to set a different keyed hash factory.
func WithKeyedHashFactory(f crypto.KeyedHashFactory) CodecOption {
	return func(c *Codec) {
		c.keyedFac = f
	}
}

// NewCodec returns a new codec using the serialization context for the wire
// format of the envelopes.
func NewCodec(ctx serde.Context, opts ...CodecOption) Codec {
	c := Codec{
		ctx:      ctx,
		keyedFac: crypto.NewHMACFactory(),
		clock:    time.Now,
		maxAge:   MaxAge,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Sign stamps the record with the current time and the schema version, then
// returns the serialized envelope authenticated with the secret. Signing the
// same record twice at different instants yields different signatures, which
// prevents replay collisions.
func (c Codec) Sign(record Record, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", xerrors.New("secret is empty")
	}

	err := record.Validate()
	if err != nil {
		return "", xerrors.Errorf("invalid record: %v", err)
	}

	payload := Payload{
		Record:    record,
		Timestamp: c.clock().UnixMilli(),
		Version:   Version,
	}

	data, err := payload.Serialize(c.ctx)
	if err != nil {
		return "", xerrors.Errorf("failed to serialize payload: %v", err)
	}

	sig, err := c.authenticate(data, secret)
	if err != nil {
		return "", xerrors.Errorf("failed to authenticate payload: %v", err)
	}

	buffer, err := NewEnvelope(data, sig).Serialize(c.ctx)
	if err != nil {
		return "", xerrors.Errorf("failed to serialize envelope: %v", err)
	}

	return string(buffer), nil
}

// Verify checks the envelope against the secret and returns the payload if
// it is genuine, fresh and complete. Otherwise it returns an InvalidError
// with the kind of the first failing check, in this order: malformed
// envelope, missing signature, tampered, expired, incomplete record.
func (c Codec) Verify(text string, secret []byte) (Payload, error) {
	env, err := c.envFac.EnvelopeOf(c.ctx, []byte(text))
	if err != nil {
		return Payload{}, newInvalid(MalformedEnvelope, "%v", err)
	}

	data := env.GetData()
	if len(data) == 0 || string(data) == "null" {
		return Payload{}, newInvalid(MissingSignature, "envelope has no payload")
	}

	if env.GetSignature() == "" {
		return Payload{}, newInvalid(MissingSignature, "envelope has no signature")
	}

	payload, err := c.payloadFac.PayloadOf(c.ctx, data)
	if err != nil {
		return Payload{}, newInvalid(MalformedEnvelope, "invalid payload: %v", err)
	}

	sig, err := c.authenticate(data, secret)
	if err != nil {
		return Payload{}, newInvalid(MalformedEnvelope, "%v", err)
	}

	if !crypto.DigestEqual(sig, env.GetSignature()) {
		return Payload{}, newInvalid(Tampered, "signature mismatch")
	}

	age := payload.Age(c.clock())
	if age > c.maxAge {
		return Payload{}, newInvalid(Expired, "payload is %v old", age)
	}

	if payload.Version != Version {
		return Payload{}, newInvalid(IncompleteRecord, "unsupported version '%s'", payload.Version)
	}

	err = payload.Validate()
	if err != nil {
		return Payload{}, newInvalid(IncompleteRecord, "%v", err)
	}

	return payload, nil
}

// authenticate computes the keyed digest over the canonical form of the
// payload bytes, so that two serializations of the same logical content
// always authenticate to the same digest.
func (c Codec) authenticate(data, secret []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", xerrors.Errorf("failed to canonicalize payload: %v", err)
	}

	h := c.keyedFac.New(secret)

	_, err = h.Write(canonical)
	if err != nil {
		return "", xerrors.Errorf("failed to write payload: %v", err)
	}

	return crypto.Hex(h.Sum(nil)), nil
}

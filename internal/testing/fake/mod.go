// Package fake provides fake implementations for interfaces commonly used in
// the repository. The implementations can be configured to return errors
// when the unit test needs it, and some of them record the calls they
// receive.
package fake

import (
	"context"
	"hash"
	"time"

	"go.dedis.ch/harvest/serde"
	"golang.org/x/xerrors"
)

// fakeErr is the error returned by the misbehaving fakes.
var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected message of an error wrapping the fake error.
func Err(text string) string {
	return text + ": fake error"
}

// Call is a tool to keep track of a function calls.
type Call struct {
	calls [][]interface{}
}

// Get returns the nth call ith parameter.
func (c *Call) Get(n, i int) interface{} {
	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.calls = append(c.calls, args)
}

// Hash is a fake implementation of hash.Hash.
//
// - implements hash.Hash
type Hash struct {
	hash.Hash
	delay int
	err   error
}

// NewBadHash returns a hash that returns an error when writing.
func NewBadHash() *Hash {
	return &Hash{err: fakeErr}
}

// NewBadHashWithDelay returns a hash that returns an error after the given
// number of writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{err: fakeErr, delay: delay}
}

// Write implements hash.Hash.
func (h *Hash) Write(in []byte) (int, error) {
	if h.delay > 0 {
		h.delay--
		return len(in), nil
	}

	return 0, h.err
}

// Sum implements hash.Hash.
func (h *Hash) Sum(in []byte) []byte {
	return in
}

// Size implements hash.Hash.
func (h *Hash) Size() int {
	return 0
}

// KeyedHashFactory is a fake implementation of a keyed hash factory.
//
// - implements crypto.KeyedHashFactory
type KeyedHashFactory struct {
	hash *Hash

	// Call records the secrets provided to the factory.
	Call *Call
}

// NewKeyedHashFactory returns a factory always returning the given hash.
func NewKeyedHashFactory(h *Hash) KeyedHashFactory {
	return KeyedHashFactory{hash: h, Call: &Call{}}
}

// New implements crypto.KeyedHashFactory.
func (f KeyedHashFactory) New(secret []byte) hash.Hash {
	f.Call.Add(secret)

	return f.hash
}

// Clock is a settable time source.
type Clock struct {
	now time.Time
}

// NewClock returns a clock set to the given instant.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current instant of the clock.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by the duration, which can be negative.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Waiter is a fake wait function that returns instantly and records the
// durations it is asked to wait.
type Waiter struct {
	// Call records the durations.
	Call *Call

	err error
}

// NewWaiter returns a waiter that always succeeds.
func NewWaiter() *Waiter {
	return &Waiter{Call: &Call{}}
}

// NewBadWaiter returns a waiter that always fails, as if the context had
// been cancelled.
func NewBadWaiter() *Waiter {
	return &Waiter{Call: &Call{}, err: fakeErr}
}

// Wait records the duration and returns instantly.
func (w *Waiter) Wait(ctx context.Context, d time.Duration) error {
	w.Call.Add(d)

	return w.err
}

// badEngine is a context engine that supports no format.
//
// - implements serde.ContextEngine
type badEngine struct{}

// GetFormat implements serde.ContextEngine.
func (badEngine) GetFormat() serde.Format {
	return serde.UnsupportedFormat
}

// Marshal implements serde.ContextEngine.
func (badEngine) Marshal(interface{}) ([]byte, error) {
	return nil, fakeErr
}

// Unmarshal implements serde.ContextEngine.
func (badEngine) Unmarshal([]byte, interface{}) error {
	return fakeErr
}

// NewBadContext returns a context for which every serialization fails.
func NewBadContext() serde.Context {
	return serde.NewContext(badEngine{})
}

// MakeAttrs is a helper to build an attribute map from alternating keys and
// values.
func MakeAttrs(kv ...string) map[string]string {
	attrs := make(map[string]string)

	for i := 0; i+1 < len(kv); i += 2 {
		attrs[kv[i]] = kv[i+1]
	}

	return attrs
}

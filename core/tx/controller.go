package tx

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/harvest"
	"go.dedis.ch/harvest/core"
)

const (
	// DefaultRequiredConfirmations is the confirmation threshold used when
	// the parameter is left to zero.
	DefaultRequiredConfirmations = 3

	// DefaultMaxRetries is the retry budget used when the parameter is left
	// to zero.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the wait before a retry attempt begins.
	DefaultRetryDelay = 2 * time.Second

	// DefaultConfirmInterval is the wait between two confirmation polls.
	DefaultConfirmInterval = time.Second
)

// ErrMaxRetries is the error text of a terminal failure after the retry
// budget is exhausted.
const ErrMaxRetries = "Maximum retry attempts exceeded"

// defines prometheus metrics
var (
	promState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harvest_tx_state",
		Help: "current state of the transaction lifecycle",
	})

	promRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvest_tx_retries_total",
		Help: "total number of retry attempts",
	})

	promFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvest_tx_failures_total",
		Help: "total number of failed executions",
	})
)

func init() {
	harvest.PromCollectors = append(harvest.PromCollectors,
		promState, promRetries, promFailures)
}

// Param is a structure to pass the components and the tuning of the
// controller. The zero value of every field is replaced by a sensible
// default.
type Param struct {
	// RequiredConfirmations is the number of confirmations to reach the
	// success stage.
	RequiredConfirmations int

	// MaxRetries is the number of retry attempts allowed after a failure.
	MaxRetries int

	// RetryDelay is the wait before a retry attempt begins. It fully elapses
	// before the submission is executed again.
	RetryDelay time.Duration

	// ConfirmInterval is the wait between two confirmation polls.
	ConfirmInterval time.Duration

	// Confirmer is the source of confirmations. It defaults to a simulated
	// ledger confirming once per poll.
	Confirmer Confirmer

	// OnSuccess is called exactly once per successful lifecycle, with the
	// transaction identifier, after the state is updated.
	OnSuccess func(txID string)

	// OnError is called exactly once per failed lifecycle, after the state
	// is updated.
	OnError func(err error)
}

// ctrl drives the lifecycle of a submission. The state transitions are
// strictly sequential: the mutex is held for every transition, and an epoch
// counter invalidates the attempts outlived by a reset so that a stale
// resolution cannot overwrite a newer state.
//
// - implements tx.Controller
type ctrl struct {
	sync.Mutex

	logger    zerolog.Logger
	watcher   core.Observable
	confirmer Confirmer
	required  int
	retries   int
	delay     time.Duration
	interval  time.Duration
	onSuccess func(string)
	onError   func(error)
	wait      func(context.Context, time.Duration) error

	state State
	epoch uint64
}

// NewController returns a controller in the idle stage.
func NewController(param Param) Controller {
	if param.RequiredConfirmations <= 0 {
		param.RequiredConfirmations = DefaultRequiredConfirmations
	}

	if param.MaxRetries <= 0 {
		param.MaxRetries = DefaultMaxRetries
	}

	if param.RetryDelay <= 0 {
		param.RetryDelay = DefaultRetryDelay
	}

	if param.ConfirmInterval <= 0 {
		param.ConfirmInterval = DefaultConfirmInterval
	}

	if param.Confirmer == nil {
		param.Confirmer = NewSimulatedLedger()
	}

	return &ctrl{
		logger:    harvest.Logger.With().Str("component", "txctrl").Logger(),
		watcher:   core.NewWatcher(),
		confirmer: param.Confirmer,
		required:  param.RequiredConfirmations,
		retries:   param.MaxRetries,
		delay:     param.RetryDelay,
		interval:  param.ConfirmInterval,
		onSuccess: param.OnSuccess,
		onError:   param.OnError,
		wait:      sleep,
		state:     State{Status: StatusIdle, Required: param.RequiredConfirmations},
	}
}

// Execute implements tx.Controller. It moves to the pending stage before the
// submission is awaited, then drives the lifecycle until a terminal stage
// and returns the final snapshot.
func (c *ctrl) Execute(ctx context.Context, submit Submit) State {
	c.Lock()

	if c.state.IsLoading() {
		c.logger.Warn().Msg("an execution is already in flight")

		state := c.state
		c.Unlock()

		return state
	}

	c.epoch++
	epoch := c.epoch

	c.state = State{
		Status:     StatusPending,
		Required:   c.required,
		RetryCount: c.state.RetryCount,
	}
	c.notify()
	c.Unlock()

	txID, err := submit(ctx)

	c.Lock()
	if epoch != c.epoch {
		c.logger.Debug().Msg("stale submission discarded")

		state := c.state
		c.Unlock()

		return state
	}

	if err != nil {
		return c.toFailed(err)
	}

	c.state.Status = StatusConfirming
	c.state.TxID = txID
	c.state.Confirmations = 0
	c.notify()
	c.Unlock()

	return c.confirm(ctx, epoch, txID)
}

// confirm polls the confirmer until the threshold is reached, advancing the
// counter at most one confirmation per poll.
func (c *ctrl) confirm(ctx context.Context, epoch uint64, txID string) State {
	for {
		err := c.wait(ctx, c.interval)

		c.Lock()
		if epoch != c.epoch {
			state := c.state
			c.Unlock()

			return state
		}

		if err != nil {
			return c.toFailed(err)
		}
		c.Unlock()

		count, err := c.confirmer.Confirmations(ctx, txID)

		c.Lock()
		if epoch != c.epoch {
			state := c.state
			c.Unlock()

			return state
		}

		if err != nil {
			return c.toFailed(err)
		}

		current := c.state.Confirmations
		if count > current+1 {
			count = current + 1
		}
		if count > c.required {
			count = c.required
		}
		if count < current {
			count = current
		}

		c.state.Confirmations = count
		c.notify()

		if count >= c.required {
			c.state.Status = StatusSuccess
			c.state.RetryCount = 0
			c.notify()

			state := c.state
			c.Unlock()

			c.logger.Info().Str("tx", state.TxID).Msg("transaction confirmed")

			if c.onSuccess != nil {
				c.onSuccess(state.TxID)
			}

			return state
		}

		c.Unlock()
	}
}

// Retry implements tx.Controller. It only updates the error of the state
// when the retry budget is exhausted, otherwise it waits the full retry
// delay before executing the submission again.
func (c *ctrl) Retry(ctx context.Context, submit Submit) State {
	c.Lock()

	if c.state.Status != StatusFailed {
		c.logger.Warn().Msgf("cannot retry from %v state", c.state.Status)

		state := c.state
		c.Unlock()

		return state
	}

	if c.state.RetryCount >= c.retries {
		c.state.Error = ErrMaxRetries
		c.notify()

		state := c.state
		c.Unlock()

		return state
	}

	c.state.RetryCount++
	c.notify()
	promRetries.Inc()

	epoch := c.epoch
	c.Unlock()

	err := c.wait(ctx, c.delay)

	c.Lock()
	if epoch != c.epoch {
		c.logger.Debug().Msg("stale retry discarded")

		state := c.state
		c.Unlock()

		return state
	}

	if err != nil {
		return c.toFailed(err)
	}
	c.Unlock()

	return c.Execute(ctx, submit)
}

// Reset implements tx.Controller. It returns the controller to the idle
// stage and invalidates any attempt still in flight.
func (c *ctrl) Reset() {
	c.Lock()

	c.epoch++
	c.state = State{Status: StatusIdle, Required: c.required}
	c.notify()

	c.Unlock()
}

// GetState implements tx.Controller. It returns a snapshot of the state.
func (c *ctrl) GetState() State {
	c.Lock()
	defer c.Unlock()

	return c.state
}

// IsLoading implements tx.Controller. It returns true when an execution is
// in flight.
func (c *ctrl) IsLoading() bool {
	return c.GetState().IsLoading()
}

// CanRetry implements tx.Controller. It returns true when the last execution
// failed and the retry budget is not exhausted.
func (c *ctrl) CanRetry() bool {
	c.Lock()
	defer c.Unlock()

	return c.state.Status == StatusFailed && c.state.RetryCount < c.retries
}

// Watch implements tx.Controller. It returns a channel populated with the
// changes of state until the context is done.
func (c *ctrl) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 100)

	obs := &observer{ch: ch, logger: c.logger}
	c.watcher.Add(obs)

	go func() {
		<-ctx.Done()
		c.watcher.Remove(obs)
		close(ch)
	}()

	return ch
}

// toFailed moves the state to the failed stage. It expects the mutex to be
// held and releases it before invoking the callback.
func (c *ctrl) toFailed(err error) State {
	msg := err.Error()
	if msg == "" {
		msg = "transaction failed"
	}

	c.state.Status = StatusFailed
	c.state.Error = msg
	c.notify()
	promFailures.Inc()

	state := c.state
	c.Unlock()

	c.logger.Warn().Str("cause", msg).Msg("transaction failed")

	if c.onError != nil {
		c.onError(err)
	}

	return state
}

// notify publishes the current state. It expects the mutex to be held.
func (c *ctrl) notify() {
	promState.Set(float64(c.state.Status))
	c.watcher.Notify(c.state)
}

// observer forwards the state changes to a channel.
//
// - implements core.Observer
type observer struct {
	ch     chan State
	logger zerolog.Logger
}

// NotifyCallback implements core.Observer. It pushes the state to the
// channel, or drops it if the channel is full.
func (o observer) NotifyCallback(event interface{}) {
	select {
	case o.ch <- event.(State):
	default:
		o.logger.Warn().Msg("watcher channel is full")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

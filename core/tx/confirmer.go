package tx

import (
	"context"
	"sync"
)

// simulatedLedger is a confirmation source that reports one more
// confirmation every time it is polled, which stands in for a ledger
// producing one block per polling interval.
//
// - implements tx.Confirmer
type simulatedLedger struct {
	sync.Mutex

	counts map[string]int
}

// NewSimulatedLedger returns a confirmer that confirms one block per poll.
func NewSimulatedLedger() Confirmer {
	return &simulatedLedger{
		counts: make(map[string]int),
	}
}

// Confirmations implements tx.Confirmer. It returns the number of times the
// transaction has been polled.
func (l *simulatedLedger) Confirmations(ctx context.Context, txID string) (int, error) {
	l.Lock()
	defer l.Unlock()

	l.counts[txID]++

	return l.counts[txID], nil
}

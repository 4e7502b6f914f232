package tx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	require.Equal(t, "idle", StatusIdle.String())
	require.Equal(t, "pending", StatusPending.String())
	require.Equal(t, "confirming", StatusConfirming.String())
	require.Equal(t, "success", StatusSuccess.String())
	require.Equal(t, "failed", StatusFailed.String())
	require.Equal(t, "status#99", Status(99).String())
}

func TestState_IsLoading(t *testing.T) {
	require.False(t, State{Status: StatusIdle}.IsLoading())
	require.True(t, State{Status: StatusPending}.IsLoading())
	require.True(t, State{Status: StatusConfirming}.IsLoading())
	require.False(t, State{Status: StatusSuccess}.IsLoading())
	require.False(t, State{Status: StatusFailed}.IsLoading())
}

func TestSimulatedLedger_Confirmations(t *testing.T) {
	ledger := NewSimulatedLedger()

	for i := 1; i <= 3; i++ {
		count, err := ledger.Confirmations(context.Background(), "0xabc123")
		require.NoError(t, err)
		require.Equal(t, i, count)
	}

	count, err := ledger.Confirmations(context.Background(), "0xdef456")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

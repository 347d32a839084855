package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerEscrowRoundTrip(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint("token-A", "seller", decimal.RequireFromString("100"))

	// 拉入托管
	require.NoError(t, l.TransferFrom(ctx, "token-A", "seller", decimal.RequireFromString("100")))
	assert.True(t, l.Balance("token-A", "seller").IsZero())

	// 托管放给买家
	require.NoError(t, l.Transfer(ctx, "token-A", "buyer", decimal.RequireFromString("100")))
	assert.True(t, l.Balance("token-A", "buyer").Equal(decimal.RequireFromString("100")))
}

func TestMemoryLedgerInsufficientBalance(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	err := l.TransferFrom(ctx, "token-A", "seller", decimal.RequireFromString("1"))
	assert.Error(t, err)

	// 失败的划转不产生任何余额变化
	assert.True(t, l.Balance("token-A", "seller").IsZero())
}

func TestMemoryLedgerNative(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint(NativeAsset, "buyer", decimal.RequireFromString("5"))

	require.NoError(t, l.Collect(ctx, "buyer", decimal.RequireFromString("2")))
	require.NoError(t, l.Pay(ctx, "seller", decimal.RequireFromString("1.5")))
	require.NoError(t, l.Pay(ctx, "buyer", decimal.RequireFromString("0.5")))

	assert.True(t, l.Balance(NativeAsset, "buyer").Equal(decimal.RequireFromString("3.5")))
	assert.True(t, l.Balance(NativeAsset, "seller").Equal(decimal.RequireFromString("1.5")))
}

func TestMemoryLedgerBalanceOf(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	bal, err := l.BalanceOf(ctx, "token-A", "nobody")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

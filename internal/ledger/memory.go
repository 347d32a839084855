package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// NativeAsset 内存账本中结算币种使用的资产名
const NativeAsset = "native"

// custodyAccount 托管账户在内存账本中的固定账号
const custodyAccount = "__custody__"

// MemoryLedger 内存实现，用于单元测试和【模拟模式】(未配置 EVM 节点时)。
// 同时实现 AssetLedger 和 NativeLedger。
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]map[string]decimal.Decimal // asset -> account -> balance
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]map[string]decimal.Decimal),
	}
}

// Mint 给账户铸造余额 (测试/模拟环境准备用)
func (l *MemoryLedger) Mint(asset, account string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, account, amount)
}

// Balance 无错误版余额查询，测试断言用
func (l *MemoryLedger) Balance(asset, account string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(asset, account)
}

func (l *MemoryLedger) TransferFrom(ctx context.Context, asset string, owner string, amount decimal.Decimal) error {
	return l.move(asset, owner, custodyAccount, amount)
}

func (l *MemoryLedger) Transfer(ctx context.Context, asset string, to string, amount decimal.Decimal) error {
	return l.move(asset, custodyAccount, to, amount)
}

func (l *MemoryLedger) BalanceOf(ctx context.Context, asset string, account string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(asset, account), nil
}

func (l *MemoryLedger) Collect(ctx context.Context, from string, amount decimal.Decimal) error {
	return l.move(NativeAsset, from, custodyAccount, amount)
}

func (l *MemoryLedger) Pay(ctx context.Context, to string, amount decimal.Decimal) error {
	return l.move(NativeAsset, custodyAccount, to, amount)
}

func (l *MemoryLedger) move(asset, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("负数金额: %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balanceOf(asset, from).LessThan(amount) {
		return fmt.Errorf("余额不足: asset=%s account=%s need=%s have=%s",
			asset, from, amount, l.balanceOf(asset, from))
	}
	l.credit(asset, from, amount.Neg())
	l.credit(asset, to, amount)
	return nil
}

func (l *MemoryLedger) balanceOf(asset, account string) decimal.Decimal {
	if accounts, ok := l.balances[asset]; ok {
		return accounts[account]
	}
	return decimal.Zero
}

func (l *MemoryLedger) credit(asset, account string, amount decimal.Decimal) {
	accounts, ok := l.balances[asset]
	if !ok {
		accounts = make(map[string]decimal.Decimal)
		l.balances[asset] = accounts
	}
	accounts[account] = accounts[account].Add(amount)
}

package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// AssetLedger 外部同质化资产账本。
// 托管账户 (custody) 由实现持有；协调器只描述资金从哪来、到哪去。
type AssetLedger interface {
	// TransferFrom 从 owner 划转 amount 的 asset 到托管账户 (需要 owner 事先授权)
	TransferFrom(ctx context.Context, asset string, owner string, amount decimal.Decimal) error

	// Transfer 从托管账户划转 amount 的 asset 给 to
	Transfer(ctx context.Context, asset string, to string, amount decimal.Decimal) error

	// BalanceOf 查询 account 持有的 asset 余额
	BalanceOf(ctx context.Context, asset string, account string) (decimal.Decimal, error)
}

// NativeLedger 结算币种账本，买家付款与卖家收款走这里。
type NativeLedger interface {
	// Collect 从 from 收取 amount 到托管账户 (等价于合约调用附带的 value)
	Collect(ctx context.Context, from string, amount decimal.Decimal) error

	// Pay 从托管账户支付 amount 给 to
	Pay(ctx context.Context, to string, amount decimal.Decimal) error
}

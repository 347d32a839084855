package pricing

import (
	"math/big"
	"time"

	"auction-core/internal/model"

	"github.com/shopspring/decimal"
)

// wei 精度: 金额按 18 位小数定点存储
const weiDecimals = 18

// CurrentPrice 计算拍卖在 now 时刻的结算价格，纯函数，不读写任何状态。
// 价格从 StartPrice 线性衰减到 EndPrice:
//
//	price = startPrice - (startPrice - endPrice) * clampedElapsed / duration
//
// 衰减量在 wei 整数域内计算，除法向零截断，因此计算价格永远不会低于
// 真实线性值，也不会跌破 EndPrice 地板价。
// 调用方负责保证 Auction 快照有效 (duration > 0 在创建时已校验)；
// 本函数不检查 Active。
func CurrentPrice(a *model.Auction, now time.Time) decimal.Decimal {
	elapsed := int64(now.Sub(a.StartTime) / time.Second)
	if elapsed <= 0 {
		return a.StartPrice
	}
	if elapsed >= a.DurationSecs {
		return a.EndPrice
	}

	startWei := a.StartPrice.Shift(weiDecimals).BigInt()
	endWei := a.EndPrice.Shift(weiDecimals).BigInt()

	// decayed = (start - end) * elapsed / duration  (整数截断)
	decayed := new(big.Int).Sub(startWei, endWei)
	decayed.Mul(decayed, big.NewInt(elapsed))
	decayed.Quo(decayed, big.NewInt(a.DurationSecs))

	priceWei := new(big.Int).Sub(startWei, decayed)
	return decimal.NewFromBigInt(priceWei, -weiDecimals)
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 终态原因
const (
	ReasonSettled   = "settled"
	ReasonCancelled = "cancelled"
)

// Auction 拍卖表
// 反向荷兰式拍卖: 价格从 StartPrice 随时间线性下降到 EndPrice，
// 任何买家可按当前价成交，卖家可在成交前撤单。
// 核心设计: Finalized 是唯一的终态标志，记录一旦终结即为墓碑，字段不再变更。
type Auction struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Seller       string          `gorm:"type:varchar(255);not null;index" json:"seller"`
	TokenAddress string          `gorm:"type:varchar(255);not null" json:"token_address"`
	TokenAmount  decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"token_amount"`
	StartPrice   decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"start_price"`
	EndPrice     decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"end_price"`
	StartTime    time.Time       `gorm:"not null" json:"start_time"`
	DurationSecs int64           `gorm:"not null" json:"duration_secs"`

	Active    bool `gorm:"not null;default:true;index" json:"active"`
	Finalized bool `gorm:"not null;default:false" json:"finalized"`

	// 终态信息 (仅 Finalized=true 后写入一次)
	FinalizeReason string           `gorm:"type:varchar(16)" json:"finalize_reason,omitempty"` // settled, cancelled
	Buyer          string           `gorm:"type:varchar(255)" json:"buyer,omitempty"`
	FinalPrice     *decimal.Decimal `gorm:"type:decimal(32,18)" json:"final_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Auction) TableName() string {
	return "auctions"
}

// AllModels 返回所有需要迁移的模型 (供开发环境 AutoMigrate 使用)
func AllModels() []interface{} {
	return []interface{}{
		&Auction{},
		&OutboxMessage{},
	}
}

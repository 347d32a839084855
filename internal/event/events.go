package event

// 事件主题
const (
	TopicAuctionCreated   = "auction_events_created"
	TopicAuctionFinalized = "auction_events_finalized"
	TopicCustodyAlert     = "auction_events_custody_alert"
)

// AuctionCreatedEvent 拍卖创建事件
// Topic: auction_events_created
type AuctionCreatedEvent struct {
	AuctionID    uint64 `json:"auction_id"`
	Seller       string `json:"seller"`
	TokenAddress string `json:"token_address"`
	TokenAmount  string `json:"token_amount"` // Decimal string
	StartPrice   string `json:"start_price"`
	EndPrice     string `json:"end_price"`
	DurationSecs int64  `json:"duration_secs"`
}

// AuctionFinalizedEvent 拍卖成交事件
// Topic: auction_events_finalized
type AuctionFinalizedEvent struct {
	AuctionID uint64 `json:"auction_id"`
	Buyer     string `json:"buyer"`
	PricePaid string `json:"price_paid"`
}

// AuctionCancelledEvent 拍卖撤单事件
// Topic: auction_events_finalized (与成交共用主题，按 reason 区分)
type AuctionCancelledEvent struct {
	AuctionID uint64 `json:"auction_id"`
	Reason    string `json:"reason"`
}

// CustodyAlertEvent 托管不一致告警
// 内部状态已终结但外部资产划转失败，资产可能滞留托管账户，需要人工介入。
// Topic: auction_events_custody_alert
type CustodyAlertEvent struct {
	AuctionID uint64 `json:"auction_id"`
	Stage     string `json:"stage"` // asset_release, seller_payout, buyer_refund, escrow_return
	Detail    string `json:"detail"`
}

package request

// CreateAuctionRequest 创建拍卖请求
type CreateAuctionRequest struct {
	Seller       string `json:"seller" binding:"required"`
	TokenAddress string `json:"token_address" binding:"required"`
	TokenAmount  string `json:"token_amount" binding:"required"` // Decimal string
	StartPrice   string `json:"start_price" binding:"required"`
	EndPrice     string `json:"end_price" binding:"required"`
	DurationSecs int64  `json:"duration_secs" binding:"required"`
}

// ExecuteSwapRequest 成交请求
type ExecuteSwapRequest struct {
	Payer         string `json:"payer" binding:"required"`
	PaymentAmount string `json:"payment_amount" binding:"required"` // Decimal string
}

// CancelAuctionRequest 撤单请求
type CancelAuctionRequest struct {
	Caller string `json:"caller" binding:"required"`
}

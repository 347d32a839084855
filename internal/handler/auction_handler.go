package handler

import (
	"strconv"

	"auction-core/internal/handler/request"
	"auction-core/internal/handler/response"
	"auction-core/internal/model"
	"auction-core/internal/service"
	"auction-core/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	svc *service.AuctionService
}

func NewAuctionHandler(svc *service.AuctionService) *AuctionHandler {
	return &AuctionHandler{svc: svc}
}

// Create 创建拍卖
// POST /api/v1/auctions
func (h *AuctionHandler) Create(c *gin.Context) {
	// 1. 绑定参数
	var req request.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	tokenAmount, err1 := decimal.NewFromString(req.TokenAmount)
	startPrice, err2 := decimal.NewFromString(req.StartPrice)
	endPrice, err3 := decimal.NewFromString(req.EndPrice)
	if err1 != nil || err2 != nil || err3 != nil {
		response.Error(c, errno.ErrInvalidParameters)
		return
	}

	// 2. 构造 Model
	a := &model.Auction{
		Seller:       req.Seller,
		TokenAddress: req.TokenAddress,
		TokenAmount:  tokenAmount,
		StartPrice:   startPrice,
		EndPrice:     endPrice,
		DurationSecs: req.DurationSecs,
	}

	// 3. 调用 Service
	if err := h.svc.CreateAuction(c.Request.Context(), a); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, a)
}

// List 拍卖列表
// GET /api/v1/auctions?active=true
func (h *AuctionHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	auctions, err := h.svc.ListAuctions(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, auctions)
}

// Get 拍卖详情
// GET /api/v1/auctions/:id
func (h *AuctionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.svc.GetAuction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, a)
}

// GetPrice 当前结算价
// GET /api/v1/auctions/:id/price
func (h *AuctionHandler) GetPrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	price, a, err := h.svc.GetCurrentPrice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"auction_id": a.ID,
		"price":      price.String(),
		"active":     a.Active, // 已终结时价格无意义，调用方需检查
	})
}

// Swap 按当前价成交
// POST /api/v1/auctions/:id/swap
func (h *AuctionHandler) Swap(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.ExecuteSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}
	payment, err := decimal.NewFromString(req.PaymentAmount)
	if err != nil {
		response.Error(c, errno.ErrInvalidParameters)
		return
	}

	a, price, err := h.svc.ExecuteSwap(c.Request.Context(), id, req.Payer, payment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"auction":    a,
		"price_paid": price.String(),
		"refund":     payment.Sub(price).String(),
	})
}

// Cancel 卖家撤单
// POST /api/v1/auctions/:id/cancel
func (h *AuctionHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	if err := h.svc.CancelAuction(c.Request.Context(), id, req.Caller); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"auction_id": id, "cancelled": true})
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errno.ErrInvalidParameters)
		return 0, false
	}
	return id, true
}

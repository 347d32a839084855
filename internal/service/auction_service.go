package service

import (
	"context"
	"errors"
	"time"

	"auction-core/internal/event"
	"auction-core/internal/ledger"
	"auction-core/internal/model"
	"auction-core/internal/pricing"
	"auction-core/internal/registry"
	"auction-core/pkg/errno"
	"auction-core/pkg/logger"
	"auction-core/pkg/monitor"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuctionService 结算协调器: 编排创建/成交/撤单三个操作。
// 核心安全性质: 内部终态先于外部划转提交 (checks -> effects -> interactions)。
// 登记簿的条件更新是唯一串行化点，同一拍卖上并发的成交/撤单最多一个成功。
type AuctionService struct {
	db     *gorm.DB
	reg    *registry.Registry
	assets ledger.AssetLedger
	native ledger.NativeLedger

	// 时钟注入，测试用
	now func() time.Time
}

func NewAuctionService(db *gorm.DB, reg *registry.Registry, assets ledger.AssetLedger, native ledger.NativeLedger) *AuctionService {
	return &AuctionService{
		db:     db,
		reg:    reg,
		assets: assets,
		native: native,
		now:    time.Now,
	}
}

// CreateAuction 创建拍卖并把 TokenAmount 拉入托管。
// 顺序: 参数校验 -> 托管划转 -> 落库 (记录 + Outbox 同一事务)。
// 托管划转失败则整个操作失败，不产生任何记录。
func (s *AuctionService) CreateAuction(ctx context.Context, a *model.Auction) error {
	// 1. 先校验参数，失败时不碰外部账本
	if err := registry.Validate(a); err != nil {
		return err
	}

	// 2. 从卖家拉取托管资产 (卖家需事先授权)
	if err := s.assets.TransferFrom(ctx, a.TokenAddress, a.Seller, a.TokenAmount); err != nil {
		logger.Warn("托管划转失败",
			zap.String("seller", a.Seller),
			zap.String("token", a.TokenAddress),
			zap.String("amount", a.TokenAmount.String()),
			zap.Error(err))
		return errno.ErrEscrowTransferFailed
	}

	// 3. 记录和创建事件在同一个事务内落库
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reg.Create(ctx, tx, a, s.now()); err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicAuctionCreated, formatID(a.ID), event.AuctionCreatedEvent{
			AuctionID:    a.ID,
			Seller:       a.Seller,
			TokenAddress: a.TokenAddress,
			TokenAmount:  a.TokenAmount.String(),
			StartPrice:   a.StartPrice.String(),
			EndPrice:     a.EndPrice.String(),
			DurationSecs: a.DurationSecs,
		})
	})
	if err != nil {
		// 落库失败，退回已拉取的托管资产
		if rerr := s.assets.Transfer(ctx, a.TokenAddress, a.Seller, a.TokenAmount); rerr != nil {
			s.custodyAlert(ctx, a.ID, "escrow_return", rerr)
			return errno.ErrCustodyInconsistent
		}
		return err
	}

	monitor.Business.AuctionCreatedTotal.Inc()
	amountFloat, _ := a.TokenAmount.Float64()
	monitor.Business.EscrowAmountTotal.WithLabelValues(a.TokenAddress).Add(amountFloat)

	logger.Info("拍卖已创建",
		zap.Uint64("auction_id", a.ID),
		zap.String("seller", a.Seller),
		zap.String("amount", a.TokenAmount.String()))
	return nil
}

// GetAuction 查询拍卖完整记录
func (s *AuctionService) GetAuction(ctx context.Context, id uint64) (*model.Auction, error) {
	return s.reg.Get(ctx, id)
}

// ListAuctions 拍卖列表
func (s *AuctionService) ListAuctions(ctx context.Context, activeOnly bool) ([]model.Auction, error) {
	return s.reg.List(ctx, activeOnly)
}

// GetCurrentPrice 查询当前结算价。
// 只读透传: 已终结的拍卖也会返回一个 (无意义的) 价格，调用方需自行检查 Active。
func (s *AuctionService) GetCurrentPrice(ctx context.Context, id uint64) (decimal.Decimal, *model.Auction, error) {
	a, err := s.reg.Get(ctx, id)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return pricing.CurrentPrice(a, s.now()), a, nil
}

// ExecuteSwap 按当前价成交。
// 付款先收进托管 (等价于调用附带的 value)，然后提交终态；终态提交输掉
// 并发竞争时原路退回付款。终态提交之后的外部划转失败属于托管不一致，
// 大声上报，绝不吞掉。
func (s *AuctionService) ExecuteSwap(ctx context.Context, id uint64, payer string, payment decimal.Decimal) (*model.Auction, decimal.Decimal, error) {
	// 1. 加载并检查状态
	a, err := s.reg.Get(ctx, id)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !a.Active || a.Finalized {
		monitor.Business.SwapRejectedTotal.WithLabelValues("not_active").Inc()
		return nil, decimal.Zero, errno.ErrAuctionNotActive
	}

	// 2. 计算当前价
	price := pricing.CurrentPrice(a, s.now())

	// 3. 不足额付款直接拒绝，不允许部分成交
	if payment.LessThan(price) {
		monitor.Business.SwapRejectedTotal.WithLabelValues("insufficient_payment").Inc()
		return nil, decimal.Zero, errno.ErrInsufficientPayment
	}

	// 4. 收取买家付款到托管
	if err := s.native.Collect(ctx, payer, payment); err != nil {
		monitor.Business.SwapRejectedTotal.WithLabelValues("payment_collect_failed").Inc()
		return nil, decimal.Zero, errno.ErrEscrowTransferFailed
	}

	// 5. 提交内部终态 (先于一切外部划转，关闭重入窗口)
	// MarkFinalized 的条件更新保证恰好一次: 并发调用只有第一个成功
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reg.MarkFinalized(tx, id, model.ReasonSettled, payer, price); err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicAuctionFinalized, formatID(id), event.AuctionFinalizedEvent{
			AuctionID: id,
			Buyer:     payer,
			PricePaid: price.String(),
		})
	})
	if err != nil {
		// 输掉了终态竞争 (或数据库故障)，退回已收取的付款
		if rerr := s.native.Pay(ctx, payer, payment); rerr != nil {
			s.custodyAlert(ctx, id, "buyer_refund", rerr)
			return nil, decimal.Zero, errno.ErrCustodyInconsistent
		}
		if errors.Is(err, errno.ErrAlreadyFinalized) {
			monitor.Business.SwapRejectedTotal.WithLabelValues("lost_race").Inc()
		}
		return nil, decimal.Zero, err
	}

	// 6. 外部划转: 资产给买家、价款给卖家、超付退回买家
	if err := s.assets.Transfer(ctx, a.TokenAddress, payer, a.TokenAmount); err != nil {
		s.custodyAlert(ctx, id, "asset_release", err)
		return nil, decimal.Zero, errno.ErrCustodyInconsistent
	}
	if err := s.native.Pay(ctx, a.Seller, price); err != nil {
		s.custodyAlert(ctx, id, "seller_payout", err)
		return nil, decimal.Zero, errno.ErrCustodyInconsistent
	}
	if refund := payment.Sub(price); refund.IsPositive() {
		if err := s.native.Pay(ctx, payer, refund); err != nil {
			s.custodyAlert(ctx, id, "buyer_refund", err)
			return nil, decimal.Zero, errno.ErrCustodyInconsistent
		}
	}

	monitor.Business.AuctionSettledTotal.Inc()
	priceFloat, _ := price.Float64()
	monitor.Business.SettlementPrice.Observe(priceFloat)

	logger.Info("拍卖已成交",
		zap.Uint64("auction_id", id),
		zap.String("buyer", payer),
		zap.String("price", price.String()))

	a.Active = false
	a.Finalized = true
	a.FinalizeReason = model.ReasonSettled
	a.Buyer = payer
	a.FinalPrice = &price
	return a, price, nil
}

// CancelAuction 卖家撤单，托管资产原路退回。
func (s *AuctionService) CancelAuction(ctx context.Context, id uint64, caller string) error {
	// 1. 加载
	a, err := s.reg.Get(ctx, id)
	if err != nil {
		return err
	}

	// 2. 只有卖家能撤单
	if caller != a.Seller {
		return errno.ErrUnauthorizedCancellation
	}

	// 3. 已终结的不能再撤
	if !a.Active || a.Finalized {
		return errno.ErrAuctionNotActive
	}

	// 4. 提交内部终态 (与成交同一个串行化点)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reg.MarkFinalized(tx, id, model.ReasonCancelled, "", decimal.Zero); err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicAuctionFinalized, formatID(id), event.AuctionCancelledEvent{
			AuctionID: id,
			Reason:    model.ReasonCancelled,
		})
	})
	if err != nil {
		return err
	}

	// 5. 托管资产退回卖家
	if err := s.assets.Transfer(ctx, a.TokenAddress, a.Seller, a.TokenAmount); err != nil {
		s.custodyAlert(ctx, id, "escrow_return", err)
		return errno.ErrCustodyInconsistent
	}

	monitor.Business.AuctionCancelledTotal.Inc()
	logger.Info("拍卖已撤单", zap.Uint64("auction_id", id))
	return nil
}

// custodyAlert 托管不一致: 内部状态已终结但外部划转失败。
// 没有自动回滚路径，只能大声上报 (日志 + 指标 + 告警事件) 等待人工处理。
func (s *AuctionService) custodyAlert(ctx context.Context, id uint64, stage string, cause error) {
	logger.Error("托管不一致!! 拍卖已终结但资产划转失败，需要人工介入",
		zap.Uint64("auction_id", id),
		zap.String("stage", stage),
		zap.Error(cause))
	monitor.Business.CustodyAlertTotal.WithLabelValues(stage).Inc()

	// 告警事件尽力投递，失败只记日志
	if err := model.CreateOutboxMessage(s.db, event.TopicCustodyAlert, formatID(id), event.CustodyAlertEvent{
		AuctionID: id,
		Stage:     stage,
		Detail:    cause.Error(),
	}); err != nil {
		logger.Error("托管告警事件落库失败", zap.Uint64("auction_id", id), zap.Error(err))
	}
}

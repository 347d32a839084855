package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auction-core/internal/ledger"
	"auction-core/internal/model"
	"auction-core/internal/registry"
	"auction-core/pkg/errno"
	"auction-core/pkg/monitor"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	monitor.InitBusinessMetrics()
	os.Exit(m.Run())
}

type fixture struct {
	db    *gorm.DB
	svc   *AuctionService
	mem   *ledger.MemoryLedger
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	mem := ledger.NewMemoryLedger()
	f := &fixture{
		db:    db,
		mem:   mem,
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuctionService(db, registry.New(db), mem, mem)
	f.svc.now = func() time.Time { return f.clock }

	// 卖家持有代币，买家持有结算币
	mem.Mint("token-A", "seller-1", dec("100"))
	mem.Mint(ledger.NativeAsset, "buyer-1", dec("10"))
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) createAuction(t *testing.T) *model.Auction {
	a := &model.Auction{
		Seller:       "seller-1",
		TokenAddress: "token-A",
		TokenAmount:  dec("100"),
		StartPrice:   dec("1"),
		EndPrice:     dec("0.1"),
		DurationSecs: 3600,
	}
	require.NoError(t, f.svc.CreateAuction(context.Background(), a))
	return a
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) outboxCount(topic string) int64 {
	var count int64
	f.db.Model(&model.OutboxMessage{}).Where("topic = ?", topic).Count(&count)
	return count
}

func TestCreateAuction(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)

	assert.NotZero(t, a.ID)
	assert.True(t, a.Active)
	assert.False(t, a.Finalized)

	// 托管已拉走卖家的代币
	assert.True(t, f.mem.Balance("token-A", "seller-1").IsZero())

	// 创建事件与记录同事务落库
	assert.EqualValues(t, 1, f.outboxCount("auction_events_created"))
}

func TestCreateAuctionInvalidParams(t *testing.T) {
	f := newFixture(t)
	a := &model.Auction{
		Seller:       "seller-1",
		TokenAddress: "token-A",
		TokenAmount:  decimal.Zero, // 非法
		StartPrice:   dec("1"),
		EndPrice:     dec("0.1"),
		DurationSecs: 3600,
	}
	err := f.svc.CreateAuction(context.Background(), a)
	assert.ErrorIs(t, err, errno.ErrInvalidParameters)

	// 没有记录，也没有动过账本
	var count int64
	f.db.Model(&model.Auction{}).Count(&count)
	assert.Zero(t, count)
	assert.True(t, f.mem.Balance("token-A", "seller-1").Equal(dec("100")))
}

func TestCreateAuctionEscrowFailure(t *testing.T) {
	f := newFixture(t)
	a := &model.Auction{
		Seller:       "poor-seller", // 没有余额
		TokenAddress: "token-A",
		TokenAmount:  dec("100"),
		StartPrice:   dec("1"),
		EndPrice:     dec("0.1"),
		DurationSecs: 3600,
	}
	err := f.svc.CreateAuction(context.Background(), a)
	assert.ErrorIs(t, err, errno.ErrEscrowTransferFailed)

	var count int64
	f.db.Model(&model.Auction{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetCurrentPrice(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	// 刚创建时价格精确等于 startPrice
	price, got, err := f.svc.GetCurrentPrice(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("1")))
	assert.True(t, got.Active)

	// 半程价格
	f.advance(1800 * time.Second)
	price, _, err = f.svc.GetCurrentPrice(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("0.55")))

	// 到期后精确等于 endPrice
	f.advance(3600 * time.Second)
	price, _, err = f.svc.GetCurrentPrice(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("0.1")))

	_, _, err = f.svc.GetCurrentPrice(ctx, 999)
	assert.ErrorIs(t, err, errno.ErrAuctionNotFound)
}

func TestExecuteSwapExactPayment(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	f.advance(1800 * time.Second)

	got, price, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("0.55"))
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("0.55")))
	assert.False(t, got.Active)
	assert.True(t, got.Finalized)
	assert.Equal(t, model.ReasonSettled, got.FinalizeReason)

	// 买家拿到全部托管资产，付出恰好 price，零退款
	assert.True(t, f.mem.Balance("token-A", "buyer-1").Equal(dec("100")))
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "buyer-1").Equal(dec("9.45")))

	// 卖家拿到恰好 price
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "seller-1").Equal(dec("0.55")))

	// 终态事件恰好一条
	assert.EqualValues(t, 1, f.outboxCount("auction_events_finalized"))
}

func TestExecuteSwapInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	f.advance(1800 * time.Second)

	_, _, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("0.549999999999999999"))
	assert.ErrorIs(t, err, errno.ErrInsufficientPayment)

	// 拍卖保持进行中，托管和买家余额都原封不动
	got, _ := f.svc.GetAuction(ctx, a.ID)
	assert.True(t, got.Active)
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "buyer-1").Equal(dec("10")))
	assert.True(t, f.mem.Balance("token-A", "buyer-1").IsZero())
}

func TestExecuteSwapOverpaymentRefund(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	f.advance(1800 * time.Second)

	_, price, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("2"))
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("0.55")))

	// 超付部分精确退回: 10 - 0.55
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "buyer-1").Equal(dec("9.45")))
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "seller-1").Equal(dec("0.55")))
}

func TestExecuteSwapPaymentCollectFailure(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	// 买家余额不足以付款
	_, _, err := f.svc.ExecuteSwap(ctx, a.ID, "broke-buyer", dec("1"))
	assert.ErrorIs(t, err, errno.ErrEscrowTransferFailed)

	got, _ := f.svc.GetAuction(ctx, a.ID)
	assert.True(t, got.Active)
}

func TestExecuteSwapNotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.ExecuteSwap(context.Background(), 999, "buyer-1", dec("1"))
	assert.ErrorIs(t, err, errno.ErrAuctionNotFound)
}

// 成交与撤单最多一个成功: 第二次终态尝试必须失败且不再动账
func TestSettleOnlyOnce(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	_, _, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("1"))
	require.NoError(t, err)

	buyerNative := f.mem.Balance(ledger.NativeAsset, "buyer-1")

	_, _, err = f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("1"))
	assert.ErrorIs(t, err, errno.ErrAuctionNotActive)

	err = f.svc.CancelAuction(ctx, a.ID, "seller-1")
	assert.ErrorIs(t, err, errno.ErrAuctionNotActive)

	// 失败的尝试没有动买家的钱
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "buyer-1").Equal(buyerNative))
	assert.EqualValues(t, 1, f.outboxCount("auction_events_finalized"))
}

func TestCancelAuction(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CancelAuction(ctx, a.ID, "seller-1"))

	got, _ := f.svc.GetAuction(ctx, a.ID)
	assert.False(t, got.Active)
	assert.True(t, got.Finalized)
	assert.Equal(t, model.ReasonCancelled, got.FinalizeReason)

	// 托管资产全额退回卖家
	assert.True(t, f.mem.Balance("token-A", "seller-1").Equal(dec("100")))
	assert.EqualValues(t, 1, f.outboxCount("auction_events_finalized"))
}

func TestCancelAuctionUnauthorized(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	err := f.svc.CancelAuction(ctx, a.ID, "buyer-1")
	assert.ErrorIs(t, err, errno.ErrUnauthorizedCancellation)

	got, _ := f.svc.GetAuction(ctx, a.ID)
	assert.True(t, got.Active)
	assert.True(t, f.mem.Balance("token-A", "seller-1").IsZero())
}

func TestCancelThenSwapRejected(t *testing.T) {
	f := newFixture(t)
	a := f.createAuction(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CancelAuction(ctx, a.ID, "seller-1"))

	_, _, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("1"))
	assert.ErrorIs(t, err, errno.ErrAuctionNotActive)

	// 撤单后的成交尝试没有收走买家的钱
	assert.True(t, f.mem.Balance(ledger.NativeAsset, "buyer-1").Equal(dec("10")))
}

// flakyAssets 终态提交后资产放行失败，模拟托管不一致
type flakyAssets struct {
	*ledger.MemoryLedger
	failTransfer bool
}

func (f *flakyAssets) Transfer(ctx context.Context, asset string, to string, amount decimal.Decimal) error {
	if f.failTransfer {
		return fmt.Errorf("链上划转失败")
	}
	return f.MemoryLedger.Transfer(ctx, asset, to, amount)
}

func TestExecuteSwapCustodyInconsistency(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyAssets{MemoryLedger: f.mem}
	f.svc = NewAuctionService(f.db, registry.New(f.db), flaky, f.mem)
	f.svc.now = func() time.Time { return f.clock }

	a := f.createAuction(t)
	ctx := context.Background()

	flaky.failTransfer = true
	_, _, err := f.svc.ExecuteSwap(ctx, a.ID, "buyer-1", dec("1"))
	assert.ErrorIs(t, err, errno.ErrCustodyInconsistent)

	// 内部终态已提交且不回滚; 故障必须被大声记录 (托管告警事件)
	got, _ := f.svc.GetAuction(ctx, a.ID)
	assert.True(t, got.Finalized)
	assert.EqualValues(t, 1, f.outboxCount("auction_events_custody_alert"))
}

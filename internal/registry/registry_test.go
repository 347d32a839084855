package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"auction-core/internal/model"
	"auction-core/pkg/errno"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func validAuction() *model.Auction {
	return &model.Auction{
		Seller:       "seller-1",
		TokenAddress: "token-A",
		TokenAmount:  decimal.RequireFromString("100"),
		StartPrice:   decimal.RequireFromString("1"),
		EndPrice:     decimal.RequireFromString("0.1"),
		DurationSecs: 3600,
	}
}

func TestCreate(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	a := validAuction()
	require.NoError(t, reg.Create(ctx, nil, a, now))

	assert.NotZero(t, a.ID)
	assert.True(t, a.Active)
	assert.False(t, a.Finalized)
	assert.True(t, a.StartTime.Equal(now))

	// ID 单调递增
	b := validAuction()
	require.NoError(t, reg.Create(ctx, nil, b, now))
	assert.Greater(t, b.ID, a.ID)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Auction)
	}{
		{"Zero token amount", func(a *model.Auction) { a.TokenAmount = decimal.Zero }},
		{"Zero start price", func(a *model.Auction) { a.StartPrice = decimal.Zero }},
		{"End price above start price", func(a *model.Auction) { a.EndPrice = decimal.RequireFromString("2") }},
		{"Negative end price", func(a *model.Auction) { a.EndPrice = decimal.RequireFromString("-1") }},
		{"Zero duration", func(a *model.Auction) { a.DurationSecs = 0 }},
	}

	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAuction()
			tt.mutate(a)
			err := reg.Create(ctx, nil, a, time.Now())
			assert.ErrorIs(t, err, errno.ErrInvalidParameters)

			// 校验失败不产生任何记录
			var count int64
			db.Model(&model.Auction{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

func TestGet(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()

	_, err := reg.Get(ctx, 12345)
	assert.ErrorIs(t, err, errno.ErrAuctionNotFound)

	a := validAuction()
	require.NoError(t, reg.Create(ctx, nil, a, time.Now()))

	got, err := reg.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Seller, got.Seller)
	assert.True(t, got.TokenAmount.Equal(a.TokenAmount))
}

func TestMarkFinalized(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()

	a := validAuction()
	require.NoError(t, reg.Create(ctx, nil, a, time.Now()))

	price := decimal.RequireFromString("0.55")
	require.NoError(t, reg.MarkFinalized(db, a.ID, model.ReasonSettled, "buyer-1", price))

	got, err := reg.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.Finalized)
	assert.Equal(t, model.ReasonSettled, got.FinalizeReason)
	assert.Equal(t, "buyer-1", got.Buyer)
	require.NotNil(t, got.FinalPrice)
	assert.True(t, got.FinalPrice.Equal(price))
}

// 终结只能成功一次: 第二次尝试 (无论成交还是撤单) 必须失败
func TestMarkFinalizedOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()

	a := validAuction()
	require.NoError(t, reg.Create(ctx, nil, a, time.Now()))

	require.NoError(t, reg.MarkFinalized(db, a.ID, model.ReasonCancelled, "", decimal.Zero))

	err := reg.MarkFinalized(db, a.ID, model.ReasonSettled, "buyer-1", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, errno.ErrAlreadyFinalized)

	// 墓碑不被第二次尝试污染
	got, _ := reg.Get(ctx, a.ID)
	assert.Equal(t, model.ReasonCancelled, got.FinalizeReason)
	assert.Empty(t, got.Buyer)
}

func TestMarkFinalizedNotFound(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)

	err := reg.MarkFinalized(db, 999, model.ReasonSettled, "buyer-1", decimal.Zero)
	assert.ErrorIs(t, err, errno.ErrAuctionNotFound)
}

func TestList(t *testing.T) {
	db := newTestDB(t)
	reg := New(db)
	ctx := context.Background()

	a := validAuction()
	b := validAuction()
	require.NoError(t, reg.Create(ctx, nil, a, time.Now()))
	require.NoError(t, reg.Create(ctx, nil, b, time.Now()))
	require.NoError(t, reg.MarkFinalized(db, a.ID, model.ReasonCancelled, "", decimal.Zero))

	all, err := reg.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := reg.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}

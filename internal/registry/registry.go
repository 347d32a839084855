package registry

import (
	"context"
	"errors"
	"time"

	"auction-core/internal/model"
	"auction-core/pkg/errno"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Registry 拍卖登记簿: 所有拍卖记录的唯一权威存储，一切状态变更必须经过这里。
// ID 由数据库序列分配，单调递增且永不复用；记录永不删除，终结后保留为历史。
type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// DB 暴露底层连接，供协调器把终态变更和 Outbox 写入放进同一个事务
func (r *Registry) DB() *gorm.DB {
	return r.db
}

// Create 校验参数并落库一条新拍卖记录。
// 资产托管划转不在这里发生，由调用方 (协调器) 负责。
func (r *Registry) Create(ctx context.Context, tx *gorm.DB, a *model.Auction, now time.Time) error {
	if err := Validate(a); err != nil {
		return err
	}

	a.StartTime = now
	a.Active = true
	a.Finalized = false

	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		return errno.ErrDatabase
	}
	return nil
}

// Validate 创建期参数校验，快速失败
func Validate(a *model.Auction) error {
	if a.TokenAmount.LessThanOrEqual(decimal.Zero) {
		return errno.ErrInvalidParameters
	}
	if a.StartPrice.LessThanOrEqual(decimal.Zero) {
		return errno.ErrInvalidParameters
	}
	if a.EndPrice.IsNegative() || a.EndPrice.GreaterThan(a.StartPrice) {
		return errno.ErrInvalidParameters
	}
	if a.DurationSecs <= 0 {
		return errno.ErrInvalidParameters
	}
	return nil
}

// Get 按 ID 读取拍卖记录
func (r *Registry) Get(ctx context.Context, id uint64) (*model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrAuctionNotFound
		}
		return nil, errno.ErrDatabase
	}
	return &a, nil
}

// List 列出拍卖记录，activeOnly 时只返回进行中的
func (r *Registry) List(ctx context.Context, activeOnly bool) ([]model.Auction, error) {
	var auctions []model.Auction
	query := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&auctions).Error; err != nil {
		return nil, errno.ErrDatabase
	}
	return auctions, nil
}

// MarkFinalized 原子终结一条拍卖。
// 条件更新 WHERE finalized = false 是全系统唯一的串行化点:
// 并发的成交/撤单只有第一个写者能成功，其余全部得到 ErrAlreadyFinalized。
// 这个守卫必须在登记簿内部，不能依赖调用方的检查。
func (r *Registry) MarkFinalized(tx *gorm.DB, id uint64, reason string, buyer string, price decimal.Decimal) error {
	updates := map[string]interface{}{
		"active":          false,
		"finalized":       true,
		"finalize_reason": reason,
	}
	if reason == model.ReasonSettled {
		updates["buyer"] = buyer
		updates["final_price"] = price
	}

	res := tx.Model(&model.Auction{}).
		Where("id = ? AND finalized = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return errno.ErrDatabase
	}

	if res.RowsAffected == 0 {
		// 区分 "不存在" 和 "已终结"
		var count int64
		if err := tx.Model(&model.Auction{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errno.ErrDatabase
		}
		if count == 0 {
			return errno.ErrAuctionNotFound
		}
		return errno.ErrAlreadyFinalized
	}

	return nil
}

package service

import (
	"context"
	"time"

	"auction-core/internal/model"
	"auction-core/internal/service/mq"
	"auction-core/pkg/logger"
	"auction-core/pkg/utils/lock"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RelayService 负责将本地消息表 (Outbox) 的消息搬运到 MQ。
// 多实例部署时通过分布式锁保证同一时刻只有一个实例在搬运，
// 投递语义是 At-least-once，消费端需做好幂等。
type RelayService struct {
	db       *gorm.DB
	producer mq.Producer
	distLock lock.DistributedLock
	interval time.Duration
}

func NewRelayService(db *gorm.DB, producer mq.Producer, distLock lock.DistributedLock) *RelayService {
	return &RelayService{
		db:       db,
		producer: producer,
		distLock: distLock,
		interval: 500 * time.Millisecond, // 500ms 轮询一次
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("[Relay] 启动消息中继服务...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Relay] 停止服务")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *RelayService) processPendingMessages(ctx context.Context) {
	// 0. 抢占中继锁，抢不到说明别的实例在干活
	if s.distLock != nil {
		locked, err := s.distLock.Acquire(ctx, "outbox_relay", 30*time.Second)
		if err != nil {
			logger.Error("[Relay] 获取锁失败", zap.Error(err))
			return
		}
		if !locked {
			return
		}
		defer s.distLock.Release(ctx, "outbox_relay")
	}

	// 1. 获取一批 Pending 消息 (每次取 50 条，避免内存爆炸)
	var messages []model.OutboxMessage
	if err := s.db.Where("status = ?", "PENDING").Order("id").Limit(50).Find(&messages).Error; err != nil {
		logger.Error("[Relay] 查询消息失败", zap.Error(err))
		return
	}

	if len(messages) == 0 {
		return
	}

	logger.Debug("[Relay] 发现待发送消息", zap.Int("count", len(messages)))

	for _, msg := range messages {
		// 2. 发送 MQ，分区键随消息落库时一起保存
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			logger.Error("[Relay] 发送消息失败", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}

		// 3. 更新状态为 SENT
		// 只有发送成功了才更新状态 => At-least-once (至少一次投递)
		// 如果这里更新失败，下次还会发，Consumer 需做好幂等
		if err := s.db.Model(&msg).Update("status", "SENT").Error; err != nil {
			logger.Error("[Relay] 更新状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
		}
	}
}

package service

import (
	"context"
	"encoding/json"

	"auction-core/internal/event"
	"auction-core/internal/service/mq"
	"auction-core/pkg/logger"

	"go.uber.org/zap"
)

// NotifierService 消费终态事件流，输出结构化的结算通知。
// 下游 (清算对账、站内信等) 从这里接入；当前实现落日志并喂指标。
type NotifierService struct {
	consumer mq.Consumer
}

func NewNotifierService(consumer mq.Consumer) *NotifierService {
	return &NotifierService{consumer: consumer}
}

func (s *NotifierService) Start(ctx context.Context) error {
	logger.Info("[Notifier] 启动结算通知服务...")
	return s.consumer.Subscribe(ctx, event.TopicAuctionFinalized, s.handleFinalized)
}

func (s *NotifierService) handleFinalized(msg *mq.Message) error {
	// 成交和撤单共用主题，先按成交解析，buyer 为空说明是撤单
	var fin event.AuctionFinalizedEvent
	if err := json.Unmarshal(msg.Payload, &fin); err != nil {
		logger.Error("[Notifier] 解析消息失败", zap.Error(err))
		return nil // 格式错误，不再重试
	}

	if fin.Buyer != "" {
		logger.Info("[Notifier] 拍卖成交",
			zap.Uint64("auction_id", fin.AuctionID),
			zap.String("buyer", fin.Buyer),
			zap.String("price_paid", fin.PricePaid))
		return nil
	}

	var cancelled event.AuctionCancelledEvent
	if err := json.Unmarshal(msg.Payload, &cancelled); err != nil {
		return nil
	}
	logger.Info("[Notifier] 拍卖撤单", zap.Uint64("auction_id", cancelled.AuctionID))
	return nil
}

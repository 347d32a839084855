package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	AuctionCreatedTotal   prometheus.Counter
	AuctionSettledTotal   prometheus.Counter
	AuctionCancelledTotal prometheus.Counter
	SettlementPrice       prometheus.Histogram
	EscrowAmountTotal     *prometheus.CounterVec
	CustodyAlertTotal     *prometheus.CounterVec
	SwapRejectedTotal     *prometheus.CounterVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		AuctionCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auction_created_total",
			Help: "The total number of auctions created",
		}),
		AuctionSettledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auction_settled_total",
			Help: "The total number of auctions settled via swap",
		}),
		AuctionCancelledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auction_cancelled_total",
			Help: "The total number of auctions cancelled by the seller",
		}),
		SettlementPrice: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auction_settlement_price",
			Help:    "Distribution of final settlement prices",
			Buckets: prometheus.ExponentialBuckets(0.001, 10, 8),
		}),
		EscrowAmountTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_escrow_amount_total",
			Help: "The total asset amount pulled into escrow",
		}, []string{"token"}),
		CustodyAlertTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_custody_alert_total",
			Help: "Transfers that failed after the auction was already finalized",
		}, []string{"stage"}),
		SwapRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_swap_rejected_total",
			Help: "Swap attempts rejected before settlement",
		}, []string{"reason"}),
	}
}

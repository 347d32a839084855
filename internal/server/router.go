package server

import (
	"auction-core/internal/handler"
	"auction-core/pkg/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(auctionHandler *handler.AuctionHandler) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		auctions := api.Group("/auctions")
		{
			auctions.POST("", auctionHandler.Create)
			auctions.GET("", auctionHandler.List)
			auctions.GET("/:id", auctionHandler.Get)
			auctions.GET("/:id/price", auctionHandler.GetPrice)
			auctions.POST("/:id/swap", auctionHandler.Swap)
			auctions.POST("/:id/cancel", auctionHandler.Cancel)
		}
	}

	return r
}

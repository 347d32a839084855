package main

import (
	"context"
	"fmt"

	"auction-core/internal/handler"
	"auction-core/internal/ledger"
	"auction-core/internal/model"
	"auction-core/internal/registry"
	"auction-core/internal/server"
	"auction-core/internal/service"
	"auction-core/internal/service/mq"
	"auction-core/pkg/config"
	"auction-core/pkg/database"
	"auction-core/pkg/logger"
	"auction-core/pkg/utils/lock"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. 连接数据库
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3. 连接 Redis
	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 4. 执行数据库迁移 (Auto Migrate, 仅开发环境)
	if config.Global.App.Env == "development" {
		logger.Info("开发环境: 尝试自动迁移 Schema (GORM AutoMigrate)...")
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("数据库自动迁移失败", zap.Error(err))
		}
		logger.Info("数据库自动迁移完成 (Dev Mode)")
	} else {
		logger.Info("生产环境: 跳过 AutoMigrate，请使用 migrate 工具管理 Schema")
	}

	// 5. 初始化外部账本
	var assets ledger.AssetLedger
	var native ledger.NativeLedger
	if config.Global.Ledger.Mode == "evm" {
		evm, err := ledger.NewEvmLedger(
			config.Global.Ledger.RpcUrl,
			config.Global.Ledger.CustodyKey,
			config.Global.Ledger.NativeToken,
		)
		if err != nil {
			logger.Fatal("EVM 账本初始化失败", zap.Error(err))
		}
		assets, native = evm, evm
		logger.Info("使用 EVM 账本", zap.String("custody", evm.CustodyAddress()))
	} else {
		// 模拟模式: 内存账本，给演示账户铸一点余额
		mem := ledger.NewMemoryLedger()
		mem.Mint(ledger.NativeAsset, "demo-buyer", decimal.New(1000, 0))
		assets, native = mem, mem
		logger.Info("使用内存账本【模拟模式】")
	}

	// 6. 初始化消息队列
	var producer mq.Producer
	var consumer mq.Consumer
	if config.Global.Redis.MQType == "kafka" {
		logger.Info("使用 Kafka 作为消息队列...")
		brokers := config.Global.Kafka.Brokers
		producer = mq.NewKafkaProducer(brokers)
		consumer = mq.NewKafkaConsumer(brokers, "auction_notifier_group")
	} else {
		logger.Info("使用 Redis Streams 作为消息队列...")
		producer = mq.NewRedisProducer(rdb)
		consumer = mq.NewRedisConsumer(rdb, "auction_notifier", "notifier-0")
	}

	// 7. 组装核心服务
	reg := registry.New(db)
	auctionService := service.NewAuctionService(db, reg, assets, native)

	// 8. 启动消息中继服务 (Outbox -> MQ)
	relayService := service.NewRelayService(db, producer, lock.NewRedisLock(rdb))
	go relayService.Start(context.Background())

	// 9. 启动结算通知服务
	notifier := service.NewNotifierService(consumer)
	go func() {
		if err := notifier.Start(context.Background()); err != nil {
			logger.Error("Notifier 启动失败", zap.Error(err))
		}
	}()

	// 10. HTTP Router
	r := server.NewHTTPRouter(handler.NewAuctionHandler(auctionService))

	// 11. 启动应用 (阻塞)
	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.Run()

	// 12. 退出后资源清理
	logger.Info("正在关闭数据库连接...")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	rdb.Close()
	logger.Info("系统已退出")
}

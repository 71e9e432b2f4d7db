package main

import (
	"flag"
	"fmt"

	"github.com/CabPortal/CabPortal/internal/api"
	"github.com/CabPortal/CabPortal/internal/common/config"
	"github.com/CabPortal/CabPortal/internal/common/db"
	"github.com/CabPortal/CabPortal/internal/common/logger"
	"github.com/CabPortal/CabPortal/internal/common/server"
	"github.com/CabPortal/CabPortal/internal/common/tracing"
	"github.com/CabPortal/CabPortal/internal/events"
	"github.com/CabPortal/CabPortal/internal/record"
	"github.com/CabPortal/CabPortal/internal/schema"
	"github.com/CabPortal/CabPortal/internal/session"
	"github.com/CabPortal/CabPortal/internal/user"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
)

var (
	configPath = flag.String("config", "configs/portal-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	_, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}

	// 初始化数据库并幂等建表
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	if err := schema.Migrate(gormDB); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// session token 存储：配置了 Redis 用 Redis，否则进程内存储
	var tokenStore session.TokenStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		tokenStore = session.NewRedisStore(rdb)
	} else {
		tokenStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(cfg.Auth, tokenStore)

	// 提交事件发布（未配置 brokers 时为 no-op）
	pub := events.NewPublisher(cfg.Kafka)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warnf("close event publisher: %v", err)
		}
	}()

	users := user.NewService(user.NewRepo(gormDB))
	records := record.NewService(gormDB, pub, log)
	handler := api.NewHandler(users, records, sessions, log)

	// 启动统一服务模板（HTTP API + gRPC health）
	if err := server.Run(cfg, log, func(e *echo.Echo) error {
		return handler.Register(e)
	}); err != nil {
		log.Fatalf("portal-service exited with error: %v", err)
	}
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/config"
	"github.com/CabPortal/CabPortal/internal/common/discovery"
	"github.com/CabPortal/CabPortal/internal/common/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HTTPRegisterFunc 用于注册业务 HTTP 路由。
type HTTPRegisterFunc func(e *echo.Echo) error

type RunOptions struct {
	EnableGRPCHealth bool
	ShutdownTimeout  time.Duration
}

func defaultRunOptions() RunOptions {
	return RunOptions{
		EnableGRPCHealth: true,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Run 统一的服务启动模板：
// - 构建 echo（recovery + 访问日志 + tracing）并注册业务路由
// - 可选启动 gRPC health 端口（供 Consul GRPC check 探测）
// - 注册到 Consul（HTTP check，失败不阻塞启动）
// - 优雅退出
func Run(cfg *config.Config, log logger.Logger, register HTTPRegisterFunc, opts ...func(*RunOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	o := defaultRunOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(AccessLogMiddleware(log))
	e.Use(TracingMiddleware(cfg.Server.Name))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if register != nil {
		if err := register(e); err != nil {
			return fmt.Errorf("failed to register http routes: %w", err)
		}
	}

	// 初始化 Consul 客户端（失败不阻塞服务启动）
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.New().String())
		registry := discovery.NewHTTPServiceRegistry(
			consulClient,
			serviceID,
			cfg.Server.Name,
			cfg.Server.Host,
			cfg.Server.HTTPPort,
			[]string{"http", "portal"},
		)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service to Consul: %v", err)
		} else {
			log.Infof("Service registered to Consul: %s", serviceID)
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Warnf("failed to deregister service from Consul: %v", err)
				}
			}()
		}
	}

	// gRPC health 端口：除 health/reflection 外不承载业务，
	// 供 Consul 的 GRPC check 与联调探测使用。
	var grpcServer *grpc.Server
	if o.EnableGRPCHealth && cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen grpc: %w", err)
		}
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(UnaryChain(
				UnaryRecoveryInterceptor(log),
				UnaryTracingInterceptor(cfg.Server.Name),
				UnaryAccessLogInterceptor(log),
			)),
		)
		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		reflection.Register(grpcServer)

		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				log.Warnf("grpc health server exited: %v", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	log.Infof("%s starting on %s", cfg.Server.Name, addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-ctx.Done():
			log.Warn("grpc shutdown timeout, forcing stop...")
			grpcServer.Stop()
		case <-stopped:
		}
	}
	log.Info("server stopped gracefully")
	return nil
}

// WithShutdownTimeout 修改优雅退出等待时间。
func WithShutdownTimeout(d time.Duration) func(*RunOptions) {
	return func(o *RunOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithGRPCHealth 控制是否启动 gRPC health 端口。
func WithGRPCHealth(enable bool) func(*RunOptions) {
	return func(o *RunOptions) {
		o.EnableGRPCHealth = enable
	}
}

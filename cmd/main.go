package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-board-go/internal/api/handler"
	"job-board-go/internal/api/router"
	"job-board-go/internal/config"
	appCoreLogger "job-board-go/internal/logger"
	"job-board-go/internal/notifier"
	"job-board-go/internal/storage"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
)

var (
	version     = "1.0.0"        //nolint:gochecknoglobals
	serviceName = "job-board-go" //nolint:gochecknoglobals
)

func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		appCoreLogger.Fatal().Err(err).Str("config_path", configPath).Msg("Failed to load config")
	}
	setupLogger(&cfg.Logger)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = appCoreLogger.WithContext(ctx)

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 启动申请通知消费者（依赖RabbitMQ，未配置时跳过）
	var notifyConsumer *notifier.Notifier
	if storageManager.RabbitMQ != nil {
		notifyConsumer = notifier.New(storageManager.RabbitMQ, storageManager.MySQL)
		if err := notifyConsumer.Start(ctx); err != nil {
			glog.Fatalf("启动申请通知消费者失败: %v", err)
		}
		defer notifyConsumer.Stop()
		glog.Info("申请通知消费者启动成功")
	} else {
		glog.Warn("RabbitMQ未配置，申请通知消费者未启动")
	}

	appHandler := handler.NewApplicationHandler(cfg, storageManager)
	glog.Info("ApplicationHandler初始化成功")

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, appHandler, &cfg.Auth)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if notifyConsumer != nil {
		notifyConsumer.Stop()
		glog.Info("申请通知消费者已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 配置加载前的引导日志，只保证启动早期的输出可读
func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(consoleWriter).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", version).
		Logger()

	appCoreLogger.Logger = logger
	zlog.Logger = logger

	// Hertz框架日志走同一个zerolog实例
	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelInfo)

	log.Println("Logger initialized with Zerolog (appCoreLogger & glog via adapter)")
}

// setupLogger 按配置重建全局日志：级别、格式、时间格式与调用位置
func setupLogger(cfg *config.LoggerConfig) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})
	appCoreLogger.Logger = appCoreLogger.Logger.With().
		Str("service", serviceName).
		Str("version", version).
		Logger()
	zlog.Logger = appCoreLogger.Logger

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(hlogLevel(cfg.Level))
}

// hlogLevel 将配置中的日志级别映射到Hertz的hlog级别
func hlogLevel(level string) glog.Level {
	switch level {
	case "debug":
		return glog.LevelDebug
	case "warn":
		return glog.LevelWarn
	case "error":
		return glog.LevelError
	default:
		return glog.LevelInfo
	}
}

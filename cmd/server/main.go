package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/moviebot/internal/config"
	"github.com/user/moviebot/internal/handler"
	"github.com/user/moviebot/internal/logger"
	"github.com/user/moviebot/internal/router"
	"github.com/user/moviebot/internal/service"
	"github.com/user/moviebot/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.Env)
	defer log.Sync()

	if envErr != nil {
		log.Info("未找到 .env 文件，使用系统环境变量")
	}
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		log.Warn("部分密钥未配置，相关调用将在运行时失败", zap.Strings("missing", missing))
	}

	// 初始化服务
	httpClient := utils.NewHTTPClient(cfg.HTTPTimeout)
	openai := utils.NewOpenAIClient(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)

	extractor := service.NewExtractorService(openai, cfg, log)
	tmdb := service.NewTMDBService(httpClient, cfg, log)
	whatsapp := service.NewWhatsAppService(httpClient, cfg, log)
	conversation := service.NewConversationService(extractor, tmdb, whatsapp, log)

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(cfg, conversation, log)
	r := router.NewEngine(h, log)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// POST /webhook 同步等待三次上游调用
		WriteTimeout:   4 * cfg.HTTPTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务器强制关闭", zap.Error(err))
		return
	}

	log.Info("服务器已退出")
}

package main

import (
	"atelier/internal/api"
	"atelier/internal/config"
	"atelier/internal/genclient"
	"atelier/internal/legacy"
	"atelier/internal/orchestrator"
	"atelier/internal/storage"
	"atelier/internal/store"
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed web/dist/index.html
var indexHTML string

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	st, err := store.InitStore(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise store")
		return
	}

	// 先迁移旧版扁平存储，再基于存储重建内存历史
	if st != nil {
		legacy.NewMigrator(legacy.NewFlatStore(cfg.LegacyStorePath), st).Run(context.Background())
	}

	generator := buildGenerator(context.Background(), cfg, st)

	orch := orchestrator.New(st, generator)
	if err := orch.LoadHistory(context.Background()); err != nil {
		logrus.WithError(err).Warn("failed to load generation history")
	}

	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	httpHandler := api.NewHTTPHandler(cfg, st, orch, storageBackend)

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	generations := apiGroup.Group("/generations")
	generations.POST("", httpHandler.StartGeneration)
	generations.POST("/stop", httpHandler.StopGeneration)
	generations.GET("", httpHandler.ListGenerations)
	generations.GET("/events", httpHandler.StreamEvents)
	generations.DELETE("/:id", httpHandler.DeleteGeneration)
	generations.DELETE("", httpHandler.ClearGenerations)

	groups := apiGroup.Group("/generation-groups")
	groups.DELETE("/:id", httpHandler.DeleteGenerationGroup)
	groups.POST("/:id/archive", httpHandler.ArchiveGenerationGroup)

	sessions := apiGroup.Group("/chat-sessions")
	sessions.GET("", httpHandler.ListChatSessions)
	sessions.PUT("", httpHandler.PutChatSession)
	sessions.DELETE("/:id", httpHandler.DeleteChatSession)

	agents := apiGroup.Group("/agents")
	agents.GET("", httpHandler.ListAgents)
	agents.PUT("", httpHandler.PutAgent)
	agents.DELETE("/:id", httpHandler.DeleteAgent)

	apiConfigs := apiGroup.Group("/api-configs")
	apiConfigs.GET("", httpHandler.ListAPIConfigs)
	apiConfigs.POST("", httpHandler.CreateAPIConfig)
	apiConfigs.PATCH("/:id", httpHandler.UpdateAPIConfig)
	apiConfigs.POST("/:id/activate", httpHandler.ActivateAPIConfig)
	apiConfigs.DELETE("/:id", httpHandler.DeleteAPIConfig)

	settings := apiGroup.Group("/settings")
	settings.GET("/:key", httpHandler.GetSetting)
	settings.PUT("/:key", httpHandler.PutSetting)
	settings.DELETE("/:key", httpHandler.DeleteSetting)

	if localProvider, ok := storageBackend.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	//前端资源
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
	})

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  900 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  1200 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// buildGenerator 构造生成客户端：优先使用存储中生效的端点配置，
// 没有则回落到环境变量。两者都缺失时返回 nil，生成请求会被拒绝。
func buildGenerator(ctx context.Context, cfg config.Config, st store.Store) orchestrator.Generator {
	if st != nil {
		active, err := st.GetActiveAPIConfig(ctx)
		if err == nil && active != nil {
			client, buildErr := genclient.New(genclient.Options{
				Endpoint: active.BaseURL,
				APIKey:   active.APIKey,
				Model:    active.Model,
			})
			if buildErr == nil {
				logrus.WithFields(logrus.Fields{
					"config_id": active.ID,
					"model":     active.Model,
				}).Info("using stored generation endpoint")
				return client
			}
			logrus.WithError(buildErr).WithField("config_id", active.ID).Warn("invalid stored endpoint config")
		}
	}

	if strings.TrimSpace(cfg.GenerationEndpoint) != "" {
		client, err := genclient.New(genclient.Options{
			Endpoint: cfg.GenerationEndpoint,
			APIKey:   cfg.GenerationAPIKey,
			Model:    cfg.GenerationModel,
		})
		if err == nil {
			logrus.WithField("model", cfg.GenerationModel).Info("using generation endpoint from environment")
			return client
		}
		logrus.WithError(err).Warn("invalid generation endpoint in environment")
	}

	logrus.Warn("no generation endpoint configured")
	return nil
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}

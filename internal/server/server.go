package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"citron/internal/ai"
	"citron/internal/config"
	"citron/internal/handler"
	"citron/internal/pkg/cache"
	"citron/internal/pkg/mailer"
	"citron/internal/pkg/mongodb"
	"citron/internal/pkg/storage"
	"citron/internal/pkg/storagefactory"
	"citron/internal/repository"
	"citron/internal/server/middleware"
	"citron/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
	store  storage.Storage
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Upload.MaxSize

	// 初始化 MongoDB (可选，对话落库)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			// 创建索引
			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选，限流存储)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化附件归档存储 (可选)
	var fileStore storage.Storage
	if cfg.Storage.Type != "" {
		fs, err := storagefactory.NewStorage(&cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize storage, continuing without it")
		} else {
			fileStore = fs
			log.Info().Str("type", cfg.Storage.Type).Msg("initialized upload storage")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
		store:  fileStore,
	}

	// 设置路由
	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(s.cfg.CORS.Origins))
	s.engine.Use(middleware.BodyLimit(s.cfg.Upload.MaxSize))

	// AI provider 注册表
	registry := ai.NewRegistry(
		ai.NewOpenAI(&s.cfg.AI.OpenAI, s.cfg.AI.Timeout),
		ai.NewGemini(&s.cfg.AI.Gemini, s.cfg.AI.Timeout),
	)

	// 服务层
	emailSvc := service.NewEmailService(mailer.NewSMTPSender(&s.cfg.Mail), &s.cfg.Mail)
	pdfSvc := service.NewPDFService(service.NewWkhtmltopdfRenderer(&s.cfg.PDF))

	var chatLogs *repository.ChatLogRepo
	if s.mongo != nil {
		chatLogs = repository.NewChatLogRepo(s.mongo.Database())
	}

	// 限流存储：Redis 优先，降级为进程内存
	limitStore := s.buildLimitStore()

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.cfg, s.mongo, s.redis)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)
	s.engine.GET("/", func(c *gin.Context) {
		if s.cfg.Server.Mode == "debug" {
			c.Redirect(http.StatusFound, "/swagger/index.html")
			return
		}
		c.String(http.StatusOK, "API School Manager is running!")
	})

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 简单对话（固定 Gemini）
	chatHandler := handler.NewChatHandler(registry)
	s.engine.POST("/chat", chatHandler.Chat)

	// API
	api := s.engine.Group("/api")
	{
		aiChatHandler := handler.NewAIChatHandler(registry, s.cfg, s.store, chatLogs)
		api.POST("/ai/chat/:provider", s.limit(limitStore, "20-M"), aiChatHandler.Chat)

		contactHandler := handler.NewContactHandler(emailSvc)
		api.POST("/contact", s.limit(limitStore, "5-M"), contactHandler.Send)

		newsletterHandler := handler.NewNewsletterHandler(emailSvc)
		api.POST("/newsletter/send", s.limit(limitStore, "10-H"), newsletterHandler.Send)

		pdfHandler := handler.NewPDFHandler(pdfSvc)
		api.POST("/pdf/markdown-to-pdf", s.limit(limitStore, "30-H"), pdfHandler.Generate)
	}
}

// buildLimitStore 创建限流存储
func (s *Server) buildLimitStore() limiter.Store {
	if !s.cfg.RateLimit.Enabled {
		return nil
	}

	if s.redis != nil {
		store, err := sredis.NewStoreWithOptions(s.redis.Client(), limiter.StoreOptions{
			Prefix: "citron:ratelimit",
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to create redis rate limit store, falling back to memory")
		} else {
			return store
		}
	}
	return memory.NewStore()
}

// limit 包装单个路由的限流中间件，限流关闭时为空操作
func (s *Server) limit(store limiter.Store, formatted string) gin.HandlerFunc {
	if store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(store, formatted)
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 关闭连接
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

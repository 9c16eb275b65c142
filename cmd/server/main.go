package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/git-mahad/group-chat/internal/cache"
	"github.com/git-mahad/group-chat/internal/config"
	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/handler"
	"github.com/git-mahad/group-chat/internal/hub"
	"github.com/git-mahad/group-chat/internal/middleware"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/internal/seed"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/database"
	"github.com/git-mahad/group-chat/pkg/jwt"
	"github.com/git-mahad/group-chat/pkg/log"
)

func main() {
	configPath := flag.String("config", "./config", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "group-chat",
	})
	logger := log.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.GroupModel{},
		&domain.MembershipModel{},
		&domain.MessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	userRepo := repository.NewGormUserRepository(db)
	groupRepo := repository.NewGormGroupRepository(db)
	membershipRepo := repository.NewGormMembershipRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	var msgCache cache.MessageCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisMessageCache(
			context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		msgCache = redisCache
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("message cache enabled")
	}

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessDuration, cfg.JWT.Issuer)

	authService := service.NewAuthService(userRepo, tokens)
	groupService := service.NewGroupService(groupRepo, membershipRepo)
	chatService := service.NewChatService(messageRepo, membershipRepo, msgCache)

	if cfg.Seed.Enabled {
		if err := seed.Run(context.Background(), authService); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed default accounts")
		}
	}

	h := hub.New()
	go h.Run()

	wsHandler := handler.NewWSHandler(h, authService, chatService, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(authService, groupService, chatService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", wsHandler.Handle)

	api := router.Group("/api")
	httpHandler.RegisterRoutes(api, middleware.RequireAuth(authService))

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	h.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"patvault/internal/api"
	"patvault/internal/api/handlers"
	"patvault/internal/api/middleware"
	"patvault/internal/engine/authz"
	"patvault/internal/engine/tokens"
	"patvault/internal/pkg/logger"
	"patvault/internal/platform/audit"
	"patvault/internal/platform/auth"
	"patvault/internal/platform/config"
	"patvault/internal/platform/database"
	"patvault/internal/platform/repositories"

	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional. Without it validation falls back to direct
	// database lookups on every request.
	var rdb *redis.Client
	var cache authz.ValidationCache = authz.NoopCache{}
	if cfg.Redis.Enabled {
		rdb, err = authz.NewRedisClient(cfg.Redis)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable, running without validation cache")
			rdb = nil
		} else {
			cache = authz.NewRedisCache(rdb, cfg.Redis.CacheTTL)
		}
	}

	clock := clockwork.NewRealClock()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Services
	jwtSvc := auth.NewTokenService(cfg.JWT)
	recorder := audit.NewRecorder(auditRepo)
	tokenSvc := tokens.NewService(tokenRepo, cache, clock, cfg.Token.MaxExpiryDays)
	pipeline := authz.NewPipeline(tokenRepo, cache, recorder, clock)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	patMiddleware := middleware.NewPATMiddleware(pipeline)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, clock)

	deps := &api.Dependencies{
		AuthHandler:      handlers.NewAuthHandler(userRepo, jwtSvc),
		TokenHandler:     handlers.NewTokenHandler(tokenSvc, recorder),
		UserHandler:      handlers.NewUserHandler(userRepo),
		WorkspaceHandler: handlers.NewWorkspaceHandler(),
		FCSHandler:       handlers.NewFCSHandler(),
		HealthHandler:    handlers.NewHealthHandler(db, rdb),
		AuthMiddleware:   authMiddleware,
		PATMiddleware:    patMiddleware,
		RateLimiter:      rateLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	zlog.Info().Str("addr", addr).Str("level", zerolog.GlobalLevel().String()).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

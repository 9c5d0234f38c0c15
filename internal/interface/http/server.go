package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	appauth "huntclub/internal/application/auth"
	authDomain "huntclub/internal/domain/auth"
	"huntclub/internal"
	"huntclub/internal/infra/memory"
	authinfra "huntclub/internal/infrastructure/auth"
	"huntclub/internal/infrastructure/config"
	"huntclub/internal/infrastructure/metrics"
	"huntclub/internal/infrastructure/persistence/postgres"
	redisstore "huntclub/internal/infrastructure/persistence/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const seedTimeout = 5 * time.Second

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine   *gin.Engine
	origins  []string
	store    *memory.Store
	db       *sql.DB
	redis    redis.UniversalClient
	backend  string
	flow     *appauth.Flow
	tokenSvc *authinfra.TokenIssuer
	metrics  *metrics.AuthMetrics
}

// NewServer 建立 API 伺服器；依 session backend 組裝 SessionStore，使用者來源在有 db 時改用 PostgreSQL。
func NewServer(cfg config.Config, db *sql.DB, rdb redis.UniversalClient) (*Server, error) {
	if internal.IsNil(rdb) {
		rdb = nil
	}
	tokenSvc, err := authinfra.NewTokenIssuer(authinfra.TokenConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	store := memory.NewStore()
	store.SeedUsers()

	var users appauth.UserRepository = store
	if db != nil {
		userRepo := postgres.NewUserRepo(db)
		if cfg.DB.SeedUsers {
			ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
			defer cancel()
			if err := userRepo.SeedDefaults(ctx); err != nil {
				log.Printf("[Auth] warning: seed users failed: %v", err)
			}
		}
		users = userRepo
	}

	backend := cfg.Session.Backend
	if backend == "" {
		backend = config.BackendMemory
	}
	var sessions authDomain.SessionStore
	switch backend {
	case config.BackendMemory:
		sessions = store
	case config.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("session backend %q requires a database", backend)
		}
		sessions = postgres.NewSessionRepo(db)
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("session backend %q requires a redis client", backend)
		}
		sessions = redisstore.NewSessionStore(rdb, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
	log.Printf("[Session] using %s session store", backend)

	s := &Server{
		engine:   gin.New(),
		origins:  cfg.HTTP.AllowedOrigins,
		store:    store,
		db:       db,
		redis:    rdb,
		backend:  backend,
		flow:     appauth.NewFlow(users, authinfra.BcryptHasher{}, tokenSvc, sessions),
		tokenSvc: tokenSvc,
		metrics:  metrics.New(),
	}
	s.registerRoutes()
	return s, nil
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store 主要用於測試注入初始資料。
func (s *Server) Store() *memory.Store {
	return s.store
}

func (s *Server) registerRoutes() {
	s.engine.Use(s.ginLogger(), gin.Recovery(), corsMiddleware(s.origins))

	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)
	api.POST("/login", s.handleLogin)
	api.GET("/session", s.handleSession)
	api.POST("/accessToken", s.handleAccessToken)
	api.POST("/logout", s.handleLogout)
	api.GET("/me", s.requireAuth(""), s.handleMe)

	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

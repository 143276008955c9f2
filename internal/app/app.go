// Package app wires configuration, storage and the HTTP modules together.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bloodconnect/internal/config"
	"bloodconnect/internal/middleware"
	"bloodconnect/internal/modules/admin"
	"bloodconnect/internal/modules/auth"
	"bloodconnect/internal/modules/camp"
	"bloodconnect/internal/modules/donor"
	"bloodconnect/internal/modules/inventory"
	"bloodconnect/internal/modules/matching"
	"bloodconnect/internal/modules/notification"
	"bloodconnect/internal/modules/request"
	"bloodconnect/internal/pkg/jwt"
	"bloodconnect/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// App holds every long-lived dependency of the API process.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *Store
	redis  *redis.Client
	hub    *notification.Hub
	jwt    *jwt.Service
	revoke session.Revocations

	Notifications *notification.Service
	Donors        *donor.Service
	Requests      *request.Service
	Matching      *matching.Service
	Inventory     *inventory.Service
	Camps         *camp.Service
	Admin         *admin.Service
	Auth          *auth.Service
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	mode, err := matching.ParseMode(cfg.MatchMode)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:   cfg,
		log:   log,
		store: store,
		hub:   notification.NewHub(log.Named("ws")),
		jwt:   jwt.New(cfg.JWTSecret, cfg.JWTTTL),
	}
	a.revoke = a.revocations(ctx)

	repos := store.Repos
	a.Notifications = notification.NewService(repos.Notifications, a.hub, log.Named("notification"))
	a.Donors = donor.NewService(repos.Donors, repos.Donations, repos.Users, a.Notifications, log.Named("donor"))
	a.Requests = request.NewService(repos.Requests, repos.Users, a.Donors, a.Notifications, log.Named("request"))
	a.Matching = matching.NewService(repos.Requests, a.Donors, a.Notifications, mode, log.Named("matching"))
	a.Inventory = inventory.NewService(repos.Inventory, repos.Hospitals, log.Named("inventory"))
	a.Camps = camp.NewService(repos.Camps, repos.Hospitals, a.Donors, a.Notifications, log.Named("camp"))
	a.Admin = admin.NewService(repos.Users, repos.Hospitals, admin.Sources{
		Donors:    repos.Donors,
		Requests:  repos.Requests,
		Camps:     repos.Camps,
		Donations: repos.Donations,
	}, a.Notifications, log.Named("admin"))
	a.Auth = auth.NewService(repos.Users, repos.Donors, repos.Hospitals, repos.Inventory, a.jwt, a.revoke, log.Named("auth"))

	return a, nil
}

// revocations uses Redis when REDIS_ADDR is set and reachable, and an
// in-process set otherwise.
func (a *App) revocations(ctx context.Context) session.Revocations {
	if a.cfg.RedisAddr == "" {
		return session.NewMemoryRevocations()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.log.Warn("redis unreachable, token revocations kept in memory",
			zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return session.NewMemoryRevocations()
	}
	a.redis = client
	return session.NewRedisRevocations(client, "")
}

func (a *App) Store() *Store { return a.store }

// Router builds the gin engine with every route mounted.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.RequestLogger(a.log))
	r.Use(middleware.CORS(a.cfg.CORSAllowedOrigins))

	r.GET("/health", a.health)

	allowed := middleware.OriginAllowed(a.cfg.CORSAllowedOrigins)
	checkOrigin := func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		return origin == "" || allowed(origin)
	}

	authHandler := auth.NewHandler(a.Auth)
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		donor.NewHandler(a.Donors),
		request.NewHandler(a.Requests),
		matching.NewHandler(a.Matching),
		inventory.NewHandler(a.Inventory),
		camp.NewHandler(a.Camps),
		notification.NewHandler(a.Notifications, a.hub, checkOrigin, a.log.Named("ws")),
	}

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(a.jwt, a.revoke))
		{
			authHandler.RegisterProtectedRoutes(protected)
			for _, h := range handlers {
				h.RegisterRoutes(protected)
			}
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.JWTAuth(a.jwt, a.revoke), middleware.AdminOnly())
		admin.NewHandler(a.Admin).RegisterRoutes(adminGroup)
	}
	return r
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{"status": "ok", "mode": a.store.Mode}
	if err := a.store.Gateway.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Close drops live sockets and releases the backend connections.
func (a *App) Close() error {
	a.hub.Close()
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

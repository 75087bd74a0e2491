package http

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "vidhub/internal/app"
	"vidhub/internal/bootstrap"
	"vidhub/internal/config"
	"vidhub/internal/transport/http/handler"
	"vidhub/internal/transport/http/middleware"
)

// Deps are the services the router exposes.
type Deps struct {
	Config   *config.Config
	Accounts *appsvc.AccountService
	Guard    *appsvc.SessionGuard
	Channels *appsvc.ChannelService
	History  *appsvc.HistoryService
	Health   *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	checks := map[string]handler.HealthCheck{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := app.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	if app.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	return NewEngine(Deps{
		Config:   app.Config,
		Accounts: app.Accounts,
		Guard:    app.Guard,
		Channels: app.Channels,
		History:  app.History,
		Health:   handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks),
	})
}

func NewEngine(d Deps) *gin.Engine {
	cfg := d.Config
	gin.SetMode(cfg.App.GinMode)
	handler.UseWireFieldNames()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.MaxMultipartMemory = int64(cfg.App.MaxUploadMB) << 20

	router.Static("/public", cfg.App.StaticDir)
	if d.Health != nil {
		router.GET("/healthz", d.Health.Check)
	}

	userHandler := handler.NewUserHandler(d.Accounts,
		handler.CookieConfig{
			Secure:        cfg.Auth.CookieSecure,
			AccessMaxAge:  int(cfg.AccessTTL().Seconds()),
			RefreshMaxAge: int(cfg.RefreshTTL().Seconds()),
		},
		handler.UploadConfig{
			Dir:      cfg.App.UploadDir,
			MaxBytes: int64(cfg.App.MaxUploadMB) << 20,
		},
	)
	channelHandler := handler.NewChannelHandler(d.Channels)
	historyHandler := handler.NewHistoryHandler(d.History)
	requireSession := middleware.RequireSession(d.Guard)

	users := router.Group("/api/v1/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh-token", userHandler.RefreshToken)

	secured := users.Group("")
	secured.Use(requireSession)
	secured.POST("/logout", userHandler.Logout)
	secured.POST("/change-password", userHandler.ChangePassword)
	secured.GET("/current-user", userHandler.CurrentUser)
	secured.PATCH("/update-account", userHandler.UpdateAccount)
	secured.PATCH("/avatar", userHandler.UpdateAvatar)
	secured.PATCH("/cover-image", userHandler.UpdateCover)
	secured.GET("/c/:username", channelHandler.Profile)
	secured.POST("/c/:username/subscribe", channelHandler.Subscribe)
	secured.DELETE("/c/:username/subscribe", channelHandler.Unsubscribe)
	secured.GET("/history", historyHandler.List)
	secured.POST("/history/:videoId", historyHandler.Record)

	return router
}

package router

import (
	"context"
	"net/http"
	"time"

	"chezben/config"
	"chezben/internal/cache"
	"chezben/internal/events"
	"chezben/internal/handler"
	"chezben/internal/mailer"
	"chezben/internal/metrics"
	mw "chezben/internal/middleware"
	"chezben/internal/repository"
	"chezben/internal/service"
	"chezben/internal/ws"
	"chezben/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-level resources the HTTP layer is built on.
// Redis is optional; Cooldown must be set either way.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Cooldown cache.Cooldown
	Events   events.Publisher
	Images   service.ImageStore
	Mailer   mailer.Sender
	Payments payment.Provider
	Hub      *ws.Hub
	Metrics  *metrics.Metrics
	Limiter  *mw.InMemoryRateLimiter
	Log      *zap.Logger
}

// Services groups the domain services; main needs Boosts for the expiry loop.
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Listings      *service.ListingService
	Categories    *service.CategoryService
	Conversations *service.ConversationService
	Notifications *service.NotificationService
	Boosts        *service.BoostService
	Settings      *service.SettingsService
}

func NewServices(cfg *config.Config, d Deps) *Services {
	db := d.DB
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	viewRepo := repository.NewViewRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	boostRepo := repository.NewBoostRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	resetRepo := repository.NewResetCodeRepository(db)

	mk := &cfg.Marketplace
	notifSvc := service.NewNotificationService(notifRepo, userRepo, d.Hub, d.Events, d.Metrics, d.Log)
	counter := service.NewViewCounter(viewRepo, listingRepo, d.Cooldown, mk.ViewCooldown, d.Metrics, d.Log)

	return &Services{
		Auth:  service.NewAuthService(&cfg.JWT, userRepo, resetRepo, d.Mailer, mk.ResetCodeTTL, d.Log),
		Users: service.NewUserService(userRepo, listingRepo, adminRepo, d.Images, cfg.Cloudinary.Folder, d.Log),
		Listings: service.NewListingService(service.ListingDeps{
			Listings:    listingRepo,
			Categories:  categoryRepo,
			Users:       userRepo,
			Favorites:   favoriteRepo,
			Views:       viewRepo,
			Counter:     counter,
			Notifier:    notifSvc,
			Images:      d.Images,
			Events:      d.Events,
			Limits:      service.AttributeLimitsFrom(mk),
			PhotoFolder: cfg.Cloudinary.Folder,
			HistorySize: mk.HistorySize,
			Log:         d.Log,
		}),
		Categories:    service.NewCategoryService(categoryRepo),
		Conversations: service.NewConversationService(convRepo, msgRepo, listingRepo, d.Hub, d.Events, d.Metrics, d.Log),
		Notifications: notifSvc,
		Boosts:        service.NewBoostService(boostRepo, listingRepo, userRepo, settingRepo, d.Payments, d.Events, d.Log),
		Settings:      service.NewSettingsService(settingRepo),
	}
}

func Setup(cfg *config.Config, d Deps, s *Services) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.RequestLogger(d.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(mw.Metrics(d.Metrics))

	authHandler := handler.NewAuthHandler(s.Auth, d.Log)
	googleHandler := handler.NewGoogleOAuthHandler(&cfg.OAuth, s.Auth, d.Log)
	userHandler := handler.NewUserHandler(s.Users, d.Log)
	listingHandler := handler.NewListingHandler(s.Listings, d.Log)
	categoryHandler := handler.NewCategoryHandler(s.Categories, d.Log)
	convHandler := handler.NewConversationHandler(s.Conversations, d.Log)
	notifHandler := handler.NewNotificationHandler(s.Notifications, d.Log)
	boostHandler := handler.NewBoostHandler(s.Boosts, d.Log)
	adminHandler := handler.NewAdminHandler(s.Users, s.Settings, d.Log)

	can := mw.Authorize

	api := r.Group("/api/v1")
	api.Use(mw.Authenticate(&cfg.JWT), mw.RateLimit(d.Limiter))
	{
		a := api.Group("/auth")
		{
			a.POST("/register", can(mw.ActionAuthPublic), authHandler.Register)
			a.POST("/login", can(mw.ActionAuthPublic), authHandler.Login)
			a.POST("/token/refresh", can(mw.ActionAuthPublic), authHandler.Refresh)
			a.POST("/password-reset", can(mw.ActionAuthPublic), authHandler.RequestPasswordReset)
			a.POST("/password-reset/confirm", can(mw.ActionAuthPublic), authHandler.ConfirmPasswordReset)
			a.GET("/google", can(mw.ActionAuthPublic), googleHandler.Redirect)
			a.GET("/google/callback", can(mw.ActionAuthPublic), googleHandler.Callback)
			a.POST("/google/token", can(mw.ActionAuthPublic), googleHandler.Token)

			a.GET("/me", can(mw.ActionAccountRead), userHandler.Me)
			a.PATCH("/me", can(mw.ActionAccountWrite), userHandler.UpdateMe)
			a.POST("/me/avatar", can(mw.ActionAccountWrite), userHandler.UploadAvatar)
			a.GET("/me/dashboard", can(mw.ActionAccountRead), userHandler.Dashboard)
			a.POST("/change-password", can(mw.ActionAccountWrite), authHandler.ChangePassword)
		}
		api.GET("/users/:id", can(mw.ActionProfilesRead), userHandler.PublicProfile)

		l := api.Group("/listings")
		{
			l.GET("", can(mw.ActionListingsList), listingHandler.List)
			l.POST("", can(mw.ActionListingsCreate), listingHandler.Create)
			l.GET("/detail_by_slug", can(mw.ActionListingsRead), listingHandler.DetailBySlug)
			l.GET("/history", can(mw.ActionHistory), listingHandler.History)
			l.GET("/favorites", can(mw.ActionFavorites), listingHandler.Favorites)
			l.GET("/:id", can(mw.ActionListingsRead), listingHandler.Get)
			l.PATCH("/:id", can(mw.ActionListingsUpdate), listingHandler.Update)
			l.PUT("/:id", can(mw.ActionListingsUpdate), listingHandler.Update)
			l.DELETE("/:id", can(mw.ActionListingsDelete), listingHandler.Delete)
			l.POST("/:id/approve", can(mw.ActionListingsModerate), listingHandler.Approve)
			l.POST("/:id/reject", can(mw.ActionListingsModerate), listingHandler.Reject)
			l.POST("/:id/favorite", can(mw.ActionFavorites), listingHandler.ToggleFavorite)
			l.POST("/:id/photos", can(mw.ActionPhotosManage), listingHandler.AddPhoto)
			l.DELETE("/:id/photos/:photo_id", can(mw.ActionPhotosManage), listingHandler.DeletePhoto)
		}

		cat := api.Group("/categories")
		{
			cat.GET("", can(mw.ActionCategoriesRead), categoryHandler.List)
			cat.GET("/:id", can(mw.ActionCategoriesRead), categoryHandler.Get)
			cat.POST("", can(mw.ActionCategoriesManage), categoryHandler.Create)
			cat.PATCH("/:id", can(mw.ActionCategoriesManage), categoryHandler.Update)
			cat.DELETE("/:id", can(mw.ActionCategoriesManage), categoryHandler.Delete)
		}

		m := api.Group("/messaging")
		m.Use(can(mw.ActionConversations))
		{
			m.GET("/conversations", convHandler.List)
			m.POST("/conversations", convHandler.Start)
			m.GET("/conversations/unread_count", convHandler.UnreadCount)
			m.GET("/conversations/:id/messages", convHandler.Messages)
			m.POST("/conversations/:id/send_message", convHandler.SendMessage)
			m.POST("/conversations/:id/read", convHandler.MarkRead)
		}

		n := api.Group("/notifications")
		n.Use(can(mw.ActionNotifications))
		{
			n.GET("", notifHandler.List)
			n.GET("/unread_count", notifHandler.UnreadCount)
			n.POST("/:id/mark_as_read", notifHandler.MarkRead)
			n.POST("/read-all", notifHandler.MarkAllRead)
		}

		api.GET("/boosts", can(mw.ActionBoostsOwn), boostHandler.List)
		api.POST("/boosts", can(mw.ActionBoostsOwn), boostHandler.Create)
		api.POST("/credits/buy", can(mw.ActionCreditsBuy), boostHandler.BuyCredits)

		adm := api.Group("/admin")
		{
			adm.GET("/stats", can(mw.ActionAdminStats), adminHandler.Stats)
			adm.GET("/users", can(mw.ActionAdminUsers), adminHandler.ListUsers)
			adm.PATCH("/users/:id", can(mw.ActionAdminUsers), adminHandler.UpdateUser)
			adm.GET("/settings", can(mw.ActionAdminSettings), adminHandler.GetSettings)
			adm.PUT("/settings", can(mw.ActionAdminSettings), adminHandler.UpdateSettings)
			adm.POST("/broadcast", can(mw.ActionAdminBroadcast), notifHandler.Broadcast)
			adm.GET("/boosts", can(mw.ActionBoostsAll), boostHandler.ListAll)
		}
	}

	r.GET("/ws", ws.ServeUser(&cfg.JWT, cfg.Server.CORSOrigins, d.Hub, d.Log))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/health", health(d))
	return r
}

func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := gin.H{"database": "ok"}
		code := http.StatusOK
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if d.Redis != nil {
			status["redis"] = "ok"
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}

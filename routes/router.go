package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"docshare/config"
	"docshare/controllers"
	"docshare/middleware"
	"docshare/repositories"
	"docshare/services"
	"docshare/utils"
)

// SetupRouter wires repositories, services, controllers and middleware.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	repos := repositories.NewContainer(db)
	authService := services.NewAuthService(repos.Users)
	documentService := services.NewDocumentService(repos.Documents, cfg.UploadDir, cfg.MaxUploadSizeMB)
	linkService := services.NewLinkService(repos.TxManager, repos.Links, repos.Documents, repos.AccessLogs)

	authController := controllers.NewAuthController(authService)
	documentController := controllers.NewDocumentController(documentService)
	linkController := controllers.NewLinkController(linkService)
	shareController := controllers.NewShareController(linkService)

	r.GET("/health", func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			utils.Error(ctx, http.StatusServiceUnavailable, 50300, "database unavailable")
			return
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.JWTAuth(), authController.Logout)
	authGroup.GET("/me", middleware.JWTAuth(), authController.Me)

	documents := api.Group("/documents")
	documents.Use(middleware.JWTAuth())
	documents.POST("/upload", documentController.Upload)
	documents.GET("", documentController.List)
	documents.GET("/stats/summary", documentController.Stats)
	documents.GET("/:id", documentController.Get)
	documents.PATCH("/:id", documentController.Update)
	documents.DELETE("/:id", documentController.Delete)
	documents.GET("/:id/download", documentController.Download)
	documents.GET("/:id/thumbnail", documentController.Thumbnail)

	links := api.Group("/links")
	links.Use(middleware.JWTAuth())
	links.POST("", linkController.Create)
	links.GET("", linkController.List)
	links.DELETE("/:id", linkController.Deactivate)
	links.GET("/:id/logs", linkController.AccessLogs)

	// Public share surface: the token is the credential.
	share := api.Group("/share")
	share.POST("/:token", shareController.Access)
	share.GET("/:token/status", shareController.Status)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

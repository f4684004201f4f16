package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estagioplus/benefits/config"
	"github.com/estagioplus/benefits/controllers"
	"github.com/estagioplus/benefits/middleware"
	"github.com/estagioplus/benefits/services"
	"github.com/estagioplus/benefits/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, loyalty *services.LoyaltyService) *gin.Engine {
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
	// Access log and panics go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		gl = utils.Logger
	}
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(utils.MetricsHandler()))

	authController := controllers.NewAuthController(db)
	loyaltyController := controllers.NewLoyaltyController(loyalty)
	catalogController := controllers.NewCatalogController(db)
	pointsController := controllers.NewPointsController(db)

	api := r.Group("/api/v1")
	mountAuth(api.Group("/auth"), authController, cfg.RateLimitPerMinute)
	mountLoyalty(api.Group("/loyalty"), loyaltyController, cfg.RateLimitPerMinute)
	mountCatalog(api.Group("/catalog"), catalogController)

	// Unprefixed routes used by the mobile app and the web form, which read bare payloads
	legacy := r.Group("", middleware.BareResponse())
	mountAuth(legacy.Group("/auth"), authController, cfg.RateLimitPerMinute)
	mountLoyalty(legacy.Group("/loyalty"), loyaltyController, cfg.RateLimitPerMinute)
	mountCatalog(legacy.Group("/catalog"), catalogController)

	legacy.GET("/items", pointsController.ListItems)
	legacy.GET("/points", pointsController.ListPoints)
	legacy.GET("/points/:id", pointsController.ShowPoint)
	legacy.POST("/points", middleware.RateLimitMiddleware(cfg.RateLimitPerMinute), pointsController.CreatePoint)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

func mountAuth(group *gin.RouterGroup, ac *controllers.AuthController, perMinute int) {
	group.Use(middleware.RateLimitMiddleware(perMinute))
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", middleware.AuthRequired(), ac.Logout)
	group.GET("/me", middleware.AuthRequired(), ac.Me)
}

func mountCatalog(group *gin.RouterGroup, cc *controllers.CatalogController) {
	group.GET("/categories", cc.Categories)
	group.GET("/benefits", cc.Benefits)
	group.GET("/benefits/:id", cc.BenefitByID)
}

func mountLoyalty(group *gin.RouterGroup, lc *controllers.LoyaltyController, perMinute int) {
	group.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware(perMinute))
	group.POST("/accrue", lc.Accrue)
	group.GET("/progress", lc.Progress)
	group.POST("/claim-month", lc.ClaimMonth)
	group.GET("/bonuses", lc.ListBonuses)
	group.GET("/credits", lc.ListCredits)
}

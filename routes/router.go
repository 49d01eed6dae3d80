package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkblog/inkblog/config"
	"github.com/inkblog/inkblog/controllers"
	"github.com/inkblog/inkblog/middleware"
	"github.com/inkblog/inkblog/store"
	"github.com/inkblog/inkblog/token"
	"github.com/inkblog/inkblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
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
	// Access log goes to its own rolling file; recovery logs panics there too.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)
	codec := token.NewCodec(cfg.SecretKey)
	mailer := utils.NewSMTPMailer()
	resetTTL := time.Duration(cfg.ResetTokenTTLMinutes) * time.Minute

	accountController := controllers.NewAccountController(users)
	resetController := controllers.NewResetController(users, codec, mailer, cfg.BaseURL, resetTTL)
	postController := controllers.NewPostController(users, posts)

	// Account lifecycle routes share a rate limit bucket.
	auth := r.Group("")
	auth.Use(middleware.RateLimitMiddleware())
	auth.POST("/register", middleware.RequireAnonymous(), accountController.Register)
	auth.POST("/login", middleware.RequireAnonymous(), accountController.Login)
	auth.GET("/logout", accountController.Logout)
	auth.POST("/reset_password", middleware.RequireAnonymous(), resetController.RequestReset)
	auth.GET("/reset_password/:token", middleware.RequireAnonymous(), resetController.VerifyResetToken)
	auth.POST("/reset_password/:token", middleware.RequireAnonymous(), resetController.ResetPassword)

	account := r.Group("/account")
	account.Use(middleware.RequireAuth())
	account.GET("", accountController.Account)
	account.PUT("", accountController.UpdateAccount)
	account.POST("/picture", accountController.UploadPicture)

	r.GET("/user/:username", postController.ListUserPosts)

	postsGroup := r.Group("/posts")
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.Use(middleware.RequireAuth())
	postsGroup.POST("", postController.CreatePost)
	postsGroup.PUT("/:id", postController.UpdatePost)
	postsGroup.DELETE("/:id", postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

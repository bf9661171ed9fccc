package handlers

import (
	"log/slog"
	"net/http"

	"publication-system/config"
	"publication-system/helper"
	"publication-system/metrics"
	"publication-system/middleware"
	"publication-system/models"
	"publication-system/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the HTTP layer is built from.
type RouterConfig struct {
	AuthService        services.AuthService
	PublicationService services.PublicationService
	ConferenceService  services.ConferenceService
	AdminService       services.AdminService

	JWT            config.JWT
	UploadsDir     string
	MaxUploadBytes int64
	FrontendOrigin string

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	h := helper.NewHTTPHelper()
	auth := middleware.NewAuth(cfg.JWT, h)

	authHandler := NewAuthHandler(cfg.AuthService, h)
	publicationHandler := NewPublicationHandler(cfg.PublicationService, h, cfg.MaxUploadBytes)
	conferenceHandler := NewConferenceHandler(cfg.ConferenceService, h)
	adminHandler := NewAdminHandler(cfg.AdminService, h)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLog(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(cfg.FrontendOrigin),
	)
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	router.Static("/uploads", cfg.UploadsDir)

	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/verify-email", authHandler.VerifyEmail)
			authRoutes.POST("/resend-verification", authHandler.ResendVerification)
			authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
			authRoutes.POST("/login", authHandler.Login)
		}
		v1.POST("/sysadmin/login", authHandler.SysadminLogin)

		users := v1.Group("/users", auth.Required())
		{
			users.GET("/me", authHandler.GetProfile)
			users.PUT("/me", authHandler.UpdateProfile)
			users.DELETE("/me", authHandler.DeleteAccount)
		}

		v1.GET("/publications/library", publicationHandler.Library)
		v1.GET("/publications/:id", auth.Optional(), publicationHandler.Get)
		publications := v1.Group("/publications", auth.Required())
		{
			publications.POST("", auth.RequireRole(models.RoleAuthor, models.RoleAdmin), publicationHandler.Submit)
			publications.GET("/mine", publicationHandler.ListMine)
			publications.PUT("/:id/access", publicationHandler.UpdateAccess)
			publications.PUT("/:id/status", auth.RequireRole(models.RoleAdmin, models.RoleSystemAdmin), publicationHandler.Decide)
			publications.DELETE("/:id", publicationHandler.Delete)
		}

		conferences := v1.Group("/conferences", auth.Required())
		{
			conferences.POST("", auth.RequireRole(models.RoleAdmin, models.RoleSystemAdmin), conferenceHandler.Create)
			conferences.GET("", conferenceHandler.List)
			conferences.GET("/:id", conferenceHandler.Get)
			conferences.POST("/submit", auth.RequireRole(models.RoleAuthor), conferenceHandler.Submit)
			conferences.GET("/submissions/mine", conferenceHandler.ListMySubmissions)
			conferences.POST("/:id/chair/self", auth.RequireRole(models.RoleAdmin), conferenceHandler.AssignSelf)
			conferences.GET("/:id/chairs", conferenceHandler.ListChairs)
			conferences.GET("/:id/submissions", conferenceHandler.ListSubmissions)
			conferences.PUT("/:id/submissions/:submission_id/status", conferenceHandler.DecideSubmission)
		}

		admin := v1.Group("/admin", auth.Required(), auth.RequireRole(models.RoleSystemAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/publications", publicationHandler.ListAll)
			admin.PUT("/publications/:id/status", publicationHandler.Decide)
			admin.PUT("/publications/:id/meta", publicationHandler.UpdateMeta)
			admin.POST("/publications/:id/canonicalize", publicationHandler.Canonicalize)
			admin.DELETE("/publications/:id", publicationHandler.Delete)

			admin.POST("/conferences", conferenceHandler.Create)
			admin.PUT("/conferences/:id", conferenceHandler.Update)
			admin.DELETE("/conferences/:id", conferenceHandler.Delete)
			admin.POST("/conferences/:id/chairs", conferenceHandler.AssignChair)
			admin.GET("/conferences/:id/chairs", conferenceHandler.ListChairs)
			admin.GET("/conferences/:id/submissions", conferenceHandler.ListSubmissions)
			admin.PUT("/conferences/:id/submissions/:submission_id/status", conferenceHandler.DecideSubmission)

			admin.GET("/uploads", adminHandler.ListUploads)
			admin.DELETE("/uploads/:name", adminHandler.DeleteUpload)

			admin.GET("/statistics", adminHandler.Statistics)
			admin.POST("/reset-database", adminHandler.ResetDatabase)
		}
	}

	return router
}

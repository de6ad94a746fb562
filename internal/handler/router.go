package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/service"
	"github.com/noah-isme/unisync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/unisync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/unisync-api/pkg/middleware/requestid"
)

// RouterDeps collects the handlers and collaborators mounted by NewRouter.
type RouterDeps struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Authenticator  middleware.TokenAuthenticator
	AllowedOrigins []string
	APIPrefix      string
	EnableDocs     bool

	Auth          *AuthHandler
	Profile       *ProfileHandler
	Announcements *AnnouncementHandler
	Leave         *LeaveHandler
	Dashboard     *DashboardHandler
	Events        *EventsHandler
	Files         *FilesHandler
	Audit         *AuditHandler
	System        *MetricsHandler
}

// NewRouter builds the gin engine with every UniSync route.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.APIPrefix == "" {
		deps.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.System.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.System.Prometheus)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/files/:token", deps.Files.Download)

	for _, role := range models.Roles {
		r.GET(middleware.DashboardPath(role), middleware.PortalGuard(deps.Authenticator, role), deps.Dashboard.Summary)
	}

	api := r.Group(deps.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/sign-up", deps.Auth.SignUp)
	auth.POST("/:role/sign-in", deps.Auth.SignIn)
	auth.POST("/sign-out", middleware.OptionalJWT(deps.Authenticator), deps.Auth.SignOut)
	auth.GET("/session", middleware.OptionalJWT(deps.Authenticator), deps.Auth.Session)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Authenticator))

	secured.GET("/profile", deps.Profile.Get)
	secured.PUT("/profile", deps.Profile.Update)
	secured.POST("/profile/avatar", deps.Profile.UploadAvatar)

	secured.GET("/dashboard", deps.Dashboard.Summary)
	secured.GET("/events", deps.Events.Stream)
	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), deps.System.Summary)
	secured.GET("/audit-logs", middleware.RequireRoles(models.RoleAdmin), deps.Audit.List)

	announcements := secured.Group("/announcements")
	announcements.GET("", deps.Announcements.List)
	announcements.GET("/saved", middleware.RequireRoles(models.RoleStudent), deps.Announcements.ListSaved)
	announcements.GET("/:id", deps.Announcements.Get)
	announcements.GET("/:id/share", deps.Announcements.Share)
	announcements.POST("/:id/save", middleware.RequireRoles(models.RoleStudent), deps.Announcements.Save)
	announcements.DELETE("/:id/save", middleware.RequireRoles(models.RoleStudent), deps.Announcements.Unsave)

	manage := announcements.Group("")
	manage.Use(middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	manage.POST("", deps.Announcements.Create)
	manage.PUT("/:id", deps.Announcements.Update)
	manage.DELETE("/:id", deps.Announcements.Delete)

	requests := secured.Group("/leave-requests")
	requests.GET("", deps.Leave.List)
	requests.POST("", middleware.RequireRoles(models.RoleStudent), deps.Leave.Submit)
	requests.GET("/export", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), deps.Leave.Export)
	requests.GET("/:id", deps.Leave.Get)
	requests.GET("/:id/letter", deps.Leave.Letter)
	requests.POST("/:id/:action", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), deps.Leave.Transition)
	requests.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), deps.Leave.Delete)

	return r
}

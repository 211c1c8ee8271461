package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/handler"
	"github.com/noah-isme/edu-portal-api/internal/middleware"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-portal-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Session       *handler.SessionHandler
	Users         *handler.UserHandler
	Classes       *handler.ClassHandler
	Events        *handler.EventHandler
	Overview      *handler.OverviewHandler
	Enrollments   *handler.EnrollmentHandler
	Registrations *handler.RegistrationHandler
	Checkout      *handler.CheckoutHandler
	Curriculum    *handler.CurriculumHandler
	Announcements *handler.AnnouncementHandler
	ParentChild   *handler.ParentChildHandler
	Mentors       *handler.MentorHandler
	Roster        *handler.RosterHandler
	Configuration *handler.ConfigurationHandler
	Metrics       *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Observer       middleware.RequestObserver
	Audit          middleware.AuditWriter
	Reporter       middleware.ErrorReporter
}

// New builds the gin engine with the full route table.
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.ReportErrors(opts.Reporter))
	r.Use(middleware.Metrics(opts.Observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(opts.Tokens)
	optionalAuth := middleware.OptionalJWT(opts.Tokens)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, log, action, resource)
	}

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", requireAuth, h.Auth.Logout)
	auth.POST("/change-password", requireAuth, h.Auth.ChangePassword)
	auth.GET("/me", requireAuth, h.Auth.Me)

	// Public reads; a valid token personalises the response.
	public := api.Group("", optionalAuth)
	public.GET("/session", h.Session.Session)
	public.GET("/navigation/guard", h.Session.Guard)
	public.GET("/settings", h.Configuration.Settings)
	public.GET("/classes", h.Classes.List)
	public.GET("/classes/:id", h.Classes.Get)
	public.GET("/classes/:id/overview", h.Overview.Class)
	public.GET("/classes/:id/enrollment-state", h.Overview.ClassEnrollmentState)
	public.GET("/classes/:id/curriculum", h.Curriculum.Get)
	public.GET("/events", h.Events.List)
	public.GET("/events/:id", h.Events.Get)
	public.GET("/events/:id/overview", h.Overview.Event)
	public.GET("/mentors", h.Mentors.List)

	api.POST("/payments/notifications", h.Checkout.Notification)

	member := api.Group("", requireAuth)
	member.GET("/user/enrollments", h.Enrollments.Mine)
	member.GET("/user/registrations", h.Registrations.Mine)
	member.POST("/enrollments", middleware.RequireRoles(models.RoleParent), h.Enrollments.Create)
	member.POST("/enrollments/:id/leave", h.Enrollments.Leave)
	member.POST("/events/:id/registrations", h.Registrations.Create)
	member.POST("/registrations/:id/cancel", h.Registrations.Cancel)
	member.POST("/create-checkout-session", middleware.RequireRoles(models.RoleParent), h.Checkout.CreateSession)
	member.GET("/classes/:id/announcements", h.Announcements.ForClass)
	member.GET("/parent-child", h.ParentChild.List)
	member.POST("/parent-child", h.ParentChild.Request)
	member.PATCH("/parent-child", h.ParentChild.Review)

	curriculum := member.Group("/classes/:id/curriculum",
		middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin, models.RoleT1Admin, models.RoleT2Admin))
	curriculum.POST("", h.Curriculum.Create)
	curriculum.PUT("/:itemId", h.Curriculum.Update)
	curriculum.DELETE("/:itemId", h.Curriculum.Delete)

	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.GET("/system/metrics", h.Metrics.System)

	users := admin.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	classes := admin.Group("/classes")
	classes.GET("", h.Classes.AdminList)
	classes.POST("", audit(models.AuditActionCreate, "classes"), h.Classes.Create)
	classes.PUT("/:id", audit(models.AuditActionUpdate, "classes"), h.Classes.Update)
	classes.DELETE("/:id", audit(models.AuditActionDelete, "classes"), h.Classes.Delete)
	classes.GET("/:id/roster", audit(models.AuditActionRosterExport, "classes"), h.Roster.Export)

	events := admin.Group("/events")
	events.GET("", h.Events.AdminList)
	events.POST("", audit(models.AuditActionCreate, "events"), h.Events.Create)
	events.PUT("/:id", audit(models.AuditActionUpdate, "events"), h.Events.Update)
	events.DELETE("/:id", audit(models.AuditActionDelete, "events"), h.Events.Delete)

	mentors := admin.Group("/mentors")
	mentors.GET("", h.Mentors.AdminList)
	mentors.GET("/:id", h.Mentors.Get)
	mentors.POST("", audit(models.AuditActionCreate, "mentor_profiles"), h.Mentors.Create)
	mentors.PUT("/:id", audit(models.AuditActionUpdate, "mentor_profiles"), h.Mentors.Update)
	mentors.DELETE("/:id", audit(models.AuditActionDelete, "mentor_profiles"), h.Mentors.Delete)

	announcements := admin.Group("/announcements")
	announcements.GET("", h.Announcements.List)
	announcements.GET("/:id", h.Announcements.Get)
	announcements.POST("", audit(models.AuditActionCreate, "announcements"), h.Announcements.Create)
	announcements.PUT("/:id", audit(models.AuditActionUpdate, "announcements"), h.Announcements.Update)
	announcements.DELETE("/:id", audit(models.AuditActionDelete, "announcements"), h.Announcements.Delete)

	admin.GET("/enrollments", h.Enrollments.AdminList)
	admin.PATCH("/enrollments/:id", h.Enrollments.UpdateStatus)
	admin.GET("/registrations", h.Registrations.AdminList)
	admin.PATCH("/registrations/:id", h.Registrations.UpdateStatus)

	admin.GET("/settings", h.Configuration.List)
	admin.GET("/settings/:key", h.Configuration.Get)
	admin.PUT("/settings", h.Configuration.BulkUpdate)
	admin.PUT("/settings/:key", h.Configuration.Update)

	return r
}

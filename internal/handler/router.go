package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/middleware"
	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Students  *StudentHandler
	Atts      *AttendanceHandler
	Payments  *PaymentHandler
	Leads     *LeadHandler
	Courses   *CourseHandler
	Groups    *GroupHandler
	ClassLogs *ClassLogHandler
	Settings  *SettingsHandler
	Dashboard *DashboardHandler
	Webhooks  *WebhookHandler
	Imports   *ImportHandler
	Reports   *ReportHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts all routes under the API prefix. dashboards may
// be nil when the dashboard feature is disabled.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, dashboards *service.DashboardService, h Handlers) {
	if prefix == "" {
		prefix = "/api/v1"
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	invalidate := middleware.InvalidateSnapshot(dashboards)

	api := r.Group(prefix)

	// Webhooks verify their own signature instead of carrying a JWT.
	api.POST("/webhooks/calendly", h.Webhooks.Calendly)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.Me)
	protected.PUT("/auth/password", h.Auth.ChangePassword)

	users := protected.Group("/users", admin)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	students := protected.Group("/students", staff, invalidate)
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.POST("", h.Students.Create)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Archive)
	students.POST("/:id/unarchive", h.Students.Unarchive)

	attendance := protected.Group("/attendance", staff, invalidate)
	attendance.GET("", h.Atts.List)
	attendance.POST("", h.Atts.Mark)
	attendance.PUT("/:id", h.Atts.Update)
	attendance.DELETE("/:id", h.Atts.Delete)

	payments := protected.Group("/payments", staff, invalidate)
	payments.GET("", h.Payments.List)
	payments.GET("/summary", admin, h.Payments.Summary)
	payments.GET("/:id", h.Payments.Get)
	payments.POST("", h.Payments.Record)
	payments.PUT("/:id", h.Payments.Update)
	payments.DELETE("/:id", admin, h.Payments.Delete)

	leads := protected.Group("/leads", staff, invalidate)
	leads.GET("", h.Leads.List)
	leads.GET("/:id", h.Leads.Get)
	leads.POST("", h.Leads.Create)
	leads.PUT("/:id", h.Leads.Update)
	leads.PUT("/:id/status", h.Leads.UpdateStatus)
	leads.POST("/:id/convert", h.Leads.Convert)
	leads.DELETE("/:id", h.Leads.Delete)

	courses := protected.Group("/courses", staff)
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", admin, h.Courses.Create)
	courses.PUT("/:id", admin, h.Courses.Update)

	groups := protected.Group("/groups", staff)
	groups.GET("", h.Groups.List)
	groups.GET("/:id", h.Groups.Get)
	groups.POST("", h.Groups.Create)
	groups.PUT("/:id", h.Groups.Update)
	groups.POST("/:id/enrollments", h.Groups.Enroll)

	sessions := protected.Group("/sessions", staff, invalidate)
	sessions.PUT("/:id", h.Groups.RescheduleSession)
	sessions.POST("/:id/attendance", h.Atts.MarkSession)

	enrollments := protected.Group("/enrollments", staff)
	enrollments.PUT("/:id", h.Groups.UpdateEnrollment)
	enrollments.DELETE("/:id", h.Groups.RemoveEnrollment)

	classLogs := protected.Group("/class-logs", staff)
	classLogs.GET("", h.ClassLogs.List)
	classLogs.POST("", h.ClassLogs.Create)
	classLogs.PUT("/:id", h.ClassLogs.Update)
	classLogs.DELETE("/:id", h.ClassLogs.Delete)

	activities := protected.Group("/activities", staff)
	activities.GET("", h.ClassLogs.ListActivities)
	activities.POST("", admin, h.ClassLogs.CreateActivity)
	activities.PUT("/:id", admin, h.ClassLogs.UpdateActivity)

	modules := protected.Group("/modules", staff)
	modules.GET("", h.ClassLogs.ListModules)
	modules.POST("", admin, h.ClassLogs.CreateModule)
	modules.PUT("/:id", admin, h.ClassLogs.UpdateModule)

	settings := protected.Group("/settings", admin)
	settings.GET("", h.Settings.Get)
	settings.PUT("", h.Settings.Update)

	if h.Dashboard != nil {
		protected.GET("/dashboard", staff, h.Dashboard.Snapshot)
	}

	if h.Imports != nil {
		protected.POST("/imports/students", admin, h.Imports.Students)
	}

	if h.Reports != nil {
		// Signed expiring tokens authorise downloads, no JWT needed.
		api.GET("/reports/download/:token", h.Reports.Download)

		reports := protected.Group("/reports", staff)
		reports.POST("", h.Reports.Create)
		reports.GET("/:id", h.Reports.Status)
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Scrape)
	}
}

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/interfaces/http/handler"
	"github.com/tiller/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Department  *handler.DepartmentHandler
	Category    *handler.CategoryHandler
	Client      *handler.ClientHandler
	Project     *handler.ProjectHandler
	ProjectFile *handler.ProjectFileHandler
	Bill        *handler.BillHandler
	Dashboard   *handler.DashboardHandler
	Search      *handler.SearchHandler
	Health      *handler.HealthHandler
}

// APIRoutes builds the domain groups. Only login and refresh are public;
// loginLimit runs in front of login.
func APIRoutes(h Handlers, requireAuth, loginLimit gin.HandlerFunc) []RouteRegistrar {
	superAdmin := middleware.RequireRole(identity.RoleSuperAdmin)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", loginLimit, h.Auth.Login)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	authRoutes.Group("session", "").
		Use(requireAuth).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)

	users := NewDomainGroup("users", "/users").Use(requireAuth)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.GetByID)
	users.POST("", superAdmin, h.User.Create)
	users.PATCH("/:id", superAdmin, h.User.Update)
	users.DELETE("/:id", superAdmin, h.User.Delete)
	users.PATCH("/:id/password", h.User.ChangePassword)

	departments := NewDomainGroup("departments", "/departments").Use(requireAuth)
	departments.GET("", h.Department.List).
		GET("/:id", h.Department.GetByID).
		POST("", h.Department.Create).
		PATCH("/:id", h.Department.Update).
		DELETE("/:id", h.Department.Delete)

	categories := NewDomainGroup("categories", "/categories").Use(requireAuth)
	categories.GET("", h.Category.List).
		GET("/:id", h.Category.GetByID).
		POST("", h.Category.Create).
		PATCH("/:id", h.Category.Update).
		DELETE("/:id", h.Category.Delete)

	clients := NewDomainGroup("clients", "/clients").Use(requireAuth)
	clients.GET("", h.Client.List).
		GET("/:id", h.Client.GetByID).
		POST("", h.Client.Create).
		PATCH("/:id", h.Client.Update).
		DELETE("/:id", h.Client.Delete)

	projects := NewDomainGroup("projects", "/projects").Use(requireAuth)
	projects.GET("", h.Project.List).
		POST("", h.Project.Create).
		GET("/:id", h.Project.GetByID).
		PATCH("/:id", h.Project.Update).
		DELETE("/:id", h.Project.Delete).
		PATCH("/:id/clear-pg", h.Project.ClearGuarantee).
		POST("/:id/bills", h.Project.AddBill).
		GET("/:id/statement.pdf", h.Project.Statement)
	projects.Group("files", "/:id/files").
		POST("", h.ProjectFile.Upload).
		GET("", h.ProjectFile.List).
		GET("/:fileId/download", h.ProjectFile.Download).
		PATCH("/:fileId", h.ProjectFile.Rename).
		DELETE("/:fileId", h.ProjectFile.Delete)

	bills := NewDomainGroup("bills", "/bills").Use(requireAuth)
	bills.GET("", h.Bill.List).
		GET("/export.xlsx", h.Bill.Export).
		GET("/:id", h.Bill.GetByID).
		PATCH("/:id", h.Bill.Update).
		DELETE("/:id", h.Bill.Delete).
		POST("/:id/payments/preview", h.Bill.PreviewPayment).
		POST("/:id/payments", h.Bill.RecordPayment).
		GET("/:id/receipt.pdf", h.Bill.Receipt)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(requireAuth)
	dashboard.GET("/metrics", h.Dashboard.Metrics).
		GET("/deadlines", h.Dashboard.Deadlines).
		GET("/revenue", h.Dashboard.Revenue).
		GET("/revenue-yearly", h.Dashboard.RevenueYearly).
		GET("/budget-comparison", h.Dashboard.BudgetComparison).
		GET("/distribution", h.Dashboard.Distribution).
		GET("/last-received", h.Dashboard.LastReceived).
		GET("/calendar", h.Dashboard.Calendar).
		GET("/projects", h.Dashboard.Projects)

	search := NewDomainGroup("search", "/search").Use(requireAuth)
	search.GET("/suggestions", h.Search.Suggestions)

	return []RouteRegistrar{authRoutes, users, departments, categories, clients, projects, bills, dashboard, search}
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/handlers"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

// App bundles the shared services the route groups need.
type App struct {
	Users  *services.UserService
	Parser *services.EmailParsingService
	Dialer services.MailDialer
	WS     *handlers.WSHandler

	Categories    *services.CategoryService
	Transactions  *services.TransactionService
	Budgets       *services.BudgetService
	Notifications *services.NotificationService
	Analytics     *services.AnalyticsService
	Importer      *services.CSVImportService
}

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, app *App) {
	authHandler := &handlers.AuthHandler{Users: app.Users, Categories: app.Categories}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
	rg.POST("/auth/logout", authHandler.Logout)
}

// SetupUserRoutes sets up protected profile and security routes.
func SetupUserRoutes(rg *gin.RouterGroup, app *App) {
	userHandler := &handlers.UserHandler{Users: app.Users}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.PUT("/user/notifications", userHandler.UpdateNotificationPrefs)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}

// SetupTransactionRoutes sets up the transaction, category and budget CRUD.
func SetupTransactionRoutes(rg *gin.RouterGroup, app *App) {
	txHandler := &handlers.TransactionHandler{Transactions: app.Transactions}
	categoryHandler := &handlers.CategoryHandler{Categories: app.Categories}
	budgetHandler := &handlers.BudgetHandler{Budgets: app.Budgets}

	rg.GET("/transactions", txHandler.List)
	rg.POST("/transactions", txHandler.Create)
	rg.GET("/transactions/:id", txHandler.Get)
	rg.PUT("/transactions/:id", txHandler.Update)
	rg.DELETE("/transactions/:id", txHandler.Delete)

	rg.GET("/categories", categoryHandler.List)
	rg.POST("/categories", categoryHandler.Create)
	rg.PUT("/categories/:id", categoryHandler.Update)
	rg.DELETE("/categories/:id", categoryHandler.Delete)

	rg.GET("/budgets", budgetHandler.List)
	rg.POST("/budgets", budgetHandler.Create)
	rg.GET("/budgets/status", budgetHandler.Status)
	rg.PUT("/budgets/:id", budgetHandler.Update)
	rg.DELETE("/budgets/:id", budgetHandler.Delete)
}

// SetupEmailParsingRoutes sets up the mailbox integration surface.
func SetupEmailParsingRoutes(rg *gin.RouterGroup, app *App) {
	h := &handlers.EmailParsingHandler{Users: app.Users, Parser: app.Parser, Dialer: app.Dialer}

	rg.POST("/email-parsing/trigger", h.TriggerParse)
	rg.GET("/email-parsing/status", h.Status)
	rg.GET("/email-parsing/config", h.GetConfig)
	rg.PUT("/email-parsing/config", h.UpdateConfig)
	rg.POST("/email-parsing/test", h.TestConnection)
	rg.POST("/email-parsing/disable", h.Disable)
}

// SetupImportRoutes sets up CSV import and template download.
func SetupImportRoutes(rg *gin.RouterGroup, app *App) {
	h := &handlers.CSVHandler{Users: app.Users, Importer: app.Importer}

	rg.POST("/import/csv", h.Import)
	rg.GET("/import/csv/template", h.Template)
}

// SetupNotificationRoutes sets up the notification inbox plus the realtime
// socket.
func SetupNotificationRoutes(rg *gin.RouterGroup, app *App) {
	h := &handlers.NotificationHandler{Notifications: app.Notifications}

	rg.GET("/notifications", h.List)
	rg.GET("/notifications/unread-count", h.UnreadCount)
	rg.POST("/notifications/:id/read", h.MarkRead)
	rg.POST("/notifications/read-all", h.MarkAllRead)

	rg.GET("/ws", app.WS.HandleWS)
}

// SetupAnalyticsRoutes sets up the reporting endpoints.
func SetupAnalyticsRoutes(rg *gin.RouterGroup, app *App) {
	h := &handlers.AnalyticsHandler{Analytics: app.Analytics}

	rg.GET("/analytics/monthly", h.MonthlySummary)
	rg.GET("/analytics/by-category", h.SpendingByCategory)
}

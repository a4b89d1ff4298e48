package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Anmolmahajn/money-tracker-backend/config"
	"github.com/Anmolmahajn/money-tracker-backend/handlers"
	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/routes"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	wsHandler := handlers.NewWSHandler()

	users := services.NewUserService(db)
	categories := services.NewCategoryService(db)
	transactions := services.NewTransactionService(db)
	notifications := services.NewNotificationService(db, wsHandler)
	budgets := services.NewBudgetService(db, transactions, notifications, users)
	analytics := services.NewAnalyticsService(db, notifications, users)

	registry, err := services.NewPatternRegistry(services.DefaultPatterns())
	if err != nil {
		log.Fatal("Failed to compile email patterns:", err)
	}
	resolver := services.NewCategoryResolver(categories)
	dialer := services.NewIMAPDialer()
	parser := services.NewEmailParsingService(
		dialer,
		services.NewMessageClassifier(registry),
		resolver,
		transactions,
		notifications,
	)
	importer := services.NewCSVImportService(resolver, transactions, notifications)

	app := &routes.App{
		Users:         users,
		Parser:        parser,
		Dialer:        dialer,
		WS:            wsHandler,
		Categories:    categories,
		Transactions:  transactions,
		Budgets:       budgets,
		Notifications: notifications,
		Analytics:     analytics,
		Importer:      importer,
	}

	go scheduleDailyMailboxScan(users, parser)
	go scheduleDailyBudgetCheck(budgets)
	go scheduleMonthlyRollups(analytics)
	go scheduleSessionCleanup(users)

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	corsConfig := cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		log.Printf("📨 %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.Next()
		log.Printf("✅ %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})

	router.Use(middleware.RateLimiter(100, time.Minute))

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, app)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupUserRoutes(protected, app)
			routes.SetupTransactionRoutes(protected, app)
			routes.SetupEmailParsingRoutes(protected, app)
			routes.SetupImportRoutes(protected, app)
			routes.SetupNotificationRoutes(protected, app)
			routes.SetupAnalyticsRoutes(protected, app)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// runAtInterval invokes fn once immediately, then on every tick. Scheduled
// jobs are idempotent, so an extra pass at boot is always safe.
func runAtInterval(interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		fn()
	}
}

// scheduleDailyMailboxScan runs one ingestion pass per day for every user
// with mailbox parsing enabled, starting at boot.
func scheduleDailyMailboxScan(users *services.UserService, parser *services.EmailParsingService) {
	runAtInterval(24*time.Hour, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		enabled, err := users.ListEmailParsingEnabled(ctx)
		if err != nil {
			log.Printf("❌ Scheduled mailbox scan failed: %v", err)
			return
		}

		log.Printf("📬 Scheduled mailbox scan for %d users", len(enabled))
		for i := range enabled {
			if _, err := parser.ParseMailbox(ctx, &enabled[i]); err != nil {
				log.Printf("⚠️ Mailbox scan failed for user %s: %v", enabled[i].Username, err)
			}
		}
	})
}

func scheduleDailyBudgetCheck(budgets *services.BudgetService) {
	runAtInterval(24*time.Hour, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		budgets.CheckAllBudgetsDaily(ctx)
	})
}

// scheduleMonthlyRollups fires on the first day of each month. The boot
// pass makes a restart on the first still deliver that month's rollup.
func scheduleMonthlyRollups(analytics *services.AnalyticsService) {
	lastSent := ""
	runAtInterval(12*time.Hour, func() {
		now := time.Now()
		if now.Day() != 1 {
			return
		}
		month := now.Format("2006-01")
		if month == lastSent {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		analytics.SendMonthlyRollups(ctx)
		lastSent = month
	})
}

func scheduleSessionCleanup(users *services.UserService) {
	runAtInterval(24*time.Hour, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := users.CleanupExpiredSessions(ctx)
		if err != nil {
			log.Printf("❌ Session cleanup failed: %v", err)
			return
		}
		log.Printf("🧹 Cleaned up %d expired sessions", n)
	})
}

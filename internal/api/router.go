package api

import (
	"net/http" // HTTP status codes
	"time"     // CORS cache lifetime

	"finance_tracker/internal/config"     // Custom package for configuration
	"finance_tracker/internal/middleware" // Custom package for middleware
	"finance_tracker/internal/service"    // Services behind the handlers

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Logging library
	"gorm.io/gorm"                // GORM ORM library
)

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg *config.Config, conn *gorm.DB, auth *service.AuthService, txs *service.TransactionService) *gin.Engine {
	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	loc := cfg.DisplayLocation() // Zone for human readable timestamps

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Finance Tracker API is running...")
	})
	r.GET("/healthz", HealthHandler(conn))

	// Auth routes
	authGroup := r.Group("/api/auth")
	authGroup.POST("/signup", SignupHandler(auth)) // Registration endpoint
	authGroup.POST("/login", LoginHandler(auth))   // Login endpoint

	// Transaction routes (protected by JWT)
	txGroup := r.Group("/api/transactions")
	txGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	txGroup.POST("/add", AddTransactionHandler(txs, loc))
	txGroup.GET("/all", ListTransactionsHandler(txs, loc))
	txGroup.PUT("/update/:id", UpdateTransactionHandler(txs, loc))
	txGroup.DELETE("/delete/:id", DeleteTransactionHandler(txs))
	txGroup.GET("/filter", FilterTransactionsHandler(txs, loc))
	txGroup.GET("/search", SearchTransactionsHandler(txs, loc))
	txGroup.GET("/category-summary", CategorySummaryHandler(txs))
	txGroup.GET("/export-csv", ExportCSVHandler(txs))
	txGroup.GET("/export-xlsx", ExportXLSXHandler(txs))

	return r
}

// HealthHandler reports whether the database answers a ping
func HealthHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package main

import (
	"context" // context package is needed for Redis operations

	_ "time/tzdata" // Embedded zone database for DISPLAY_TIMEZONE

	"finance_tracker/internal/api"     // Custom package for API handlers
	"finance_tracker/internal/config"  // Custom package for configuration
	"finance_tracker/internal/db"      // Custom package for database setup
	"finance_tracker/internal/service" // Custom package for services
	"finance_tracker/internal/utils"   // Cache adapter

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database once; the handle is shared by every request
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.AutoMigrate(conn); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Setup Redis client when configured
	var cache service.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cache = utils.NewRedisCache(redisClient)
	} else {
		logrus.Info("REDIS_ADDR not set, caching disabled")
	}

	auth := service.NewAuthService(conn, cfg.JWTSecret, cfg.JWTTTL)
	txs := service.NewTransactionService(conn, cache, cfg.CacheTTL)
	r := api.NewRouter(cfg, conn, auth, txs)

	logrus.Infof("Finance Tracker API running on port %s", cfg.AppPort) // Log server start
	// Start the server on port cfg.AppPort
	if err := r.Run("0.0.0.0:" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}

package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // Application port
	DBDriver        string        // Database driver: mysql or sqlite
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	DBPath          string        // SQLite database file
	JWTSecret       string        // JWT secret key
	JWTTTL          time.Duration // Lifetime of issued tokens
	RedisAddr       string        // Redis server address, empty disables caching
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	CacheTTL        time.Duration // Lifetime of cached listings
	DisplayTimezone string        // IANA zone used for human readable timestamps
	LogLevel        string        // Logrus level name
	IsProd          bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:         getEnv("APP_PORT", "5000"),                                   // Application port
		DBDriver:        getEnv("DB_DRIVER", "mysql"),                                 // Database driver
		DBUser:          os.Getenv("DB_USER"),                                         // Database user
		DBPassword:      os.Getenv("DB_PASSWORD"),                                     // Database password
		DBHost:          getEnv("DB_HOST", "127.0.0.1"),                               // Database host
		DBPort:          getEnv("DB_PORT", "3306"),                                    // Database port
		DBName:          os.Getenv("DB_NAME"),                                         // Database name
		DBPath:          getEnv("DB_PATH", "finance_tracker.db"),                      // SQLite file
		JWTSecret:       os.Getenv("JWT_SECRET"),                                      // JWT secret key
		JWTTTL:          time.Duration(getInt("JWT_TTL_HOURS", 168)) * time.Hour,      // Token lifetime
		RedisAddr:       os.Getenv("REDIS_ADDR"),                                      // Redis server address
		RedisPass:       os.Getenv("REDIS_PASS"),                                      // Redis password
		RedisDB:         redisDB,                                                      // Redis database number
		CacheTTL:        time.Duration(getInt("CACHE_TTL_SECONDS", 60)) * time.Second, // Cache lifetime
		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),                   // Display zone
		LogLevel:        getEnv("LOG_LEVEL", "info"),                                  // Log level
		IsProd:          os.Getenv("IS_PROD") == "true",                               // Is production environment
	}
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// DisplayLocation resolves DisplayTimezone, falling back to UTC when the zone is unknown
func (c *Config) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv returns the variable value or def when unset
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt parses a positive integer variable, returning def when unset or invalid
func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

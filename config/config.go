package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Server
	Port   string
	AppEnv string

	// Logging
	LogLevel string
	LogFile  string

	// Scheduling defaults
	DefaultWeekStartDay int    // 0=Sunday..6=Saturday
	DefaultLessonTime   string // HH:MM

	// Feature Toggles
	SkipMigrate           bool
	EnableReminderJob     bool
	ReminderCronSpec      string
	UseRedisActivityCache bool
}

func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
}

var AppConfig *Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	weekStartDayStr := getEnv("DEFAULT_WEEK_START_DAY", "1")
	weekStartDay, err := strconv.Atoi(weekStartDayStr)
	if err != nil || weekStartDay < 0 || weekStartDay > 6 {
		log.Fatal("Invalid DEFAULT_WEEK_START_DAY, must be 0-6:", weekStartDayStr)
	}

	AppConfig = &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "tutortrack"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "logs/app.log"),

		DefaultWeekStartDay: weekStartDay,
		DefaultLessonTime:   getEnv("DEFAULT_LESSON_TIME", "09:00"),

		SkipMigrate:           strings.ToLower(getEnv("SKIP_MIGRATE", "false")) == "true",
		EnableReminderJob:     strings.ToLower(getEnv("ENABLE_REMINDER_JOB", "true")) == "true",
		ReminderCronSpec:      getEnv("REMINDER_CRON_SPEC", "@daily"),
		UseRedisActivityCache: strings.ToLower(getEnv("USE_REDIS_ACTIVITY_CACHE", "true")) == "true",
	}

	validateConfig(AppConfig)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func validateConfig(c *Config) {
	// Only enforce stricter rules in production
	if strings.ToLower(c.AppEnv) != "production" {
		return
	}
	if strings.TrimSpace(c.DBPassword) == "" {
		log.Fatal("Missing required secret DB_PASSWORD in production")
	}
}

package main

import (
	"log"
	"os"

	"tutortrack/config"
	"tutortrack/database"
	"tutortrack/database/seeders"
	"tutortrack/middleware"
	"tutortrack/routes"
	"tutortrack/services"
	"tutortrack/services/websocket"
	"tutortrack/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func init() {
	config.LoadConfig()
	setupLogging()
	database.Connect()

	if os.Getenv("SEED_DEMO") == "true" {
		seeders.SeedAll()
	}
}

func main() {
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Daily payment data lives in Redis when available, otherwise in memory
	// for the lifetime of the process.
	var kv storage.KVStore
	if redisClient := database.GetRedisClient(); redisClient != nil {
		kv = storage.NewRedisStore(redisClient)
	} else {
		kv = storage.NewMemoryStore()
	}
	dailyService := services.NewDailyPaymentService(kv)

	if config.AppConfig.EnableReminderJob {
		scheduler := services.NewReminderScheduler(dailyService, wsHub)
		if err := scheduler.Start(); err != nil {
			logrus.WithError(err).Error("Failed to start reminder scheduler")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.LoggerMiddleware())

	routes.SetupRoutes(app, wsHub, dailyService)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	addr := ":" + config.AppConfig.Port
	logrus.WithFields(logrus.Fields{
		"port": config.AppConfig.Port,
		"env":  config.AppConfig.AppEnv,
	}).Info("Server starting")

	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.AppConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if config.AppConfig.AppEnv == "development" {
		logrus.SetOutput(os.Stdout)
	} else {
		file, err := os.OpenFile(config.AppConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logrus.SetOutput(file)
		}
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}

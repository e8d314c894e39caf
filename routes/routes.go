package routes

import (
	"tutortrack/controllers"
	"tutortrack/services"
	"tutortrack/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes. Everything is scoped to a
// group pin; holding the pin is the only credential.
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub, daily *services.DailyPaymentService) {
	lessonQuery := services.NewLessonQueryService(daily)

	groupController := &controllers.GroupController{Hub: wsHub}
	studentController := &controllers.StudentController{Hub: wsHub, Daily: daily}
	lessonController := &controllers.LessonController{Hub: wsHub, Query: lessonQuery}
	paymentController := &controllers.PaymentController{Hub: wsHub}
	dailyPaymentController := &controllers.DailyPaymentController{Hub: wsHub, Daily: daily}
	notificationController := &controllers.NotificationController{}
	healthController := &controllers.HealthController{}
	wsController := controllers.NewWebSocketController(wsHub)

	app.Get("/health", healthController.Health)

	api := app.Group("/api")

	// Group lifecycle
	groups := api.Group("/groups")
	groups.Post("/", groupController.CreateGroup)
	groups.Post("/join", groupController.JoinGroup)
	groups.Post("/:pin/join", groupController.JoinGroup)
	groups.Get("/:pin", groupController.GetGroup)
	groups.Put("/:pin/settings", groupController.UpdateGroupSettings)
	groups.Post("/:pin/next-week", groupController.NextWeek)
	groups.Post("/:pin/previous-week", groupController.PreviousWeek)
	groups.Post("/:pin/reset-week", groupController.ResetWeek)
	groups.Delete("/:pin", groupController.DeleteGroup)

	// Students
	students := groups.Group("/:pin/students")
	students.Get("/", studentController.GetStudents)
	students.Post("/", studentController.CreateStudent)
	students.Get("/:id", studentController.GetStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Delete("/:id", studentController.DeleteStudent)

	// Lessons
	students.Get("/:id/week", lessonController.GetWeeklyView)
	students.Post("/:id/week/generate", lessonController.GenerateWeekLessons)
	lessons := students.Group("/:id/lessons/:lessonId")
	lessons.Post("/toggle-completion", lessonController.ToggleCompletion)
	lessons.Post("/toggle-cancellation", lessonController.ToggleCancellation)
	lessons.Post("/toggle-paid", lessonController.ToggleLessonPaid)
	lessons.Post("/restore", lessonController.RestoreLesson)
	lessons.Post("/reschedule", lessonController.RescheduleLesson)
	lessons.Put("/status", lessonController.SetLessonStatus)
	lessons.Put("/time", lessonController.UpdateLessonTime)

	groups.Get("/:pin/lessons/today", lessonController.GetTodaysLessons)
	groups.Get("/:pin/lessons/cancelled", lessonController.GetCancelledLessons)

	// Monthly payment ledger
	groups.Get("/:pin/payments/summary", paymentController.GetPaymentSummary)
	groups.Get("/:pin/payments/statuses", paymentController.GetPaymentStatuses)
	groups.Get("/:pin/payments/history", paymentController.GetPaymentHistory)
	groups.Get("/:pin/payments/export", paymentController.ExportPaymentSummary)
	groups.Put("/:pin/payments/:paymentId", paymentController.UpdatePaymentDetails)
	students.Post("/:id/payments/mark-paid", paymentController.MarkPaid)
	students.Post("/:id/payments/mark-unpaid", paymentController.MarkUnpaid)

	// Daily payment tracker
	students.Post("/:id/daily-payments/pay-today", dailyPaymentController.PayToday)
	students.Post("/:id/daily-payments/unpay-today", dailyPaymentController.UnpayToday)
	students.Get("/:id/daily-payments/status", dailyPaymentController.GetStatus)
	students.Get("/:id/daily-payments/counter", dailyPaymentController.GetCounter)
	students.Put("/:id/daily-payments/scheduled-weekdays", dailyPaymentController.SetScheduledWeekdays)
	students.Get("/:id/daily-payments/lesson-times", dailyPaymentController.GetLessonTimes)
	students.Put("/:id/daily-payments/lesson-times", dailyPaymentController.SetLessonTime)
	groups.Get("/:pin/daily-payments/missed", dailyPaymentController.GetMissedPayments)
	groups.Get("/:pin/daily-payments/today", dailyPaymentController.GetTodaysDue)

	// Notifications
	groups.Get("/:pin/notifications", notificationController.GetNotifications)
	groups.Put("/:pin/notifications/read-all", notificationController.MarkAllNotificationsRead)
	groups.Put("/:pin/notifications/:notificationId/read", notificationController.MarkNotificationRead)

	// WebSocket
	api.Get("/ws/stats", wsController.GetWebSocketStats)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}

package controllers

import (
	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services"
	"tutortrack/services/websocket"
	"tutortrack/utils"

	"github.com/gofiber/fiber/v2"
)

type DailyPaymentController struct {
	Hub   *websocket.Hub
	Daily *services.DailyPaymentService
}

func (dc *DailyPaymentController) findDailyStudent(c *fiber.Ctx) (*models.Group, *models.Student, error) {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return nil, nil, err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return nil, nil, err
	}
	if student.PaymentType != models.PaymentTypeDaily {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Student is not on daily payment")
	}
	return group, student, nil
}

// PayToday records today's lesson payment for a daily student.
func (dc *DailyPaymentController) PayToday(c *fiber.Ctx) error {
	group, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	if err := dc.Daily.PayToday(student.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment",
		})
	}

	middleware.LogActivity(c, group.Pin, "PAY_TODAY", "daily_payments", student.ID, nil)
	dc.Hub.BroadcastToGroup(group.Pin, websocket.EventPaymentUpdated, fiber.Map{
		"student_id": student.ID,
		"paid_today": true,
	})

	return c.JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"counter": dc.Daily.PaymentCounter(student.ID),
	})
}

// UnpayToday reverts today's payment.
func (dc *DailyPaymentController) UnpayToday(c *fiber.Ctx) error {
	group, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	if err := dc.Daily.UnpayToday(student.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to revert payment",
		})
	}

	middleware.LogActivity(c, group.Pin, "UNPAY_TODAY", "daily_payments", student.ID, nil)
	dc.Hub.BroadcastToGroup(group.Pin, websocket.EventPaymentUpdated, fiber.Map{
		"student_id": student.ID,
		"paid_today": false,
	})

	return c.JSON(fiber.Map{
		"message": "Payment reverted successfully",
		"counter": dc.Daily.PaymentCounter(student.ID),
	})
}

// GetStatus returns a daily student's payment counter and stamps.
func (dc *DailyPaymentController) GetStatus(c *fiber.Ctx) error {
	_, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"counter":            dc.Daily.PaymentCounter(student.ID),
		"paid_today":         dc.Daily.IsTodayPaid(student.ID),
		"last_paid_date":     dc.Daily.LastPaidDate(student.ID),
		"scheduled_weekdays": dc.Daily.ScheduledWeekdays(student.ID),
	})
}

// GetCounter returns just the month counter for a daily student.
func (dc *DailyPaymentController) GetCounter(c *fiber.Ctx) error {
	_, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"counter": dc.Daily.PaymentCounter(student.ID),
	})
}

// SetScheduledWeekdays replaces a daily student's weekday schedule in both
// the student record and the tracker.
func (dc *DailyPaymentController) SetScheduledWeekdays(c *fiber.Ctx) error {
	group, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	var req struct {
		Weekdays []int `json:"weekdays"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	weekdays := utils.UniqueWeekdays(req.Weekdays)
	if err := dc.Daily.SetScheduledWeekdays(student.ID, weekdays); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store schedule",
		})
	}

	student.SelectedDays = weekdays
	student.WeeklyLessonCount = len(weekdays)
	if err := database.DB.Save(student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "daily_schedule", student.ID, req)
	dc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, student)

	return c.JSON(fiber.Map{
		"message":  "Schedule updated successfully",
		"weekdays": weekdays,
	})
}

// GetMissedPayments lists daily students whose scheduled lesson yesterday
// went unpaid.
func (dc *DailyPaymentController) GetMissedPayments(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	missed := dc.Daily.MissedPaymentStudents(students)

	return c.JSON(fiber.Map{
		"missed": missed,
		"total":  len(missed),
	})
}

// GetTodaysDue lists daily students with a lesson scheduled today.
func (dc *DailyPaymentController) GetTodaysDue(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	due := dc.Daily.TodaysPaymentStudents(students)

	return c.JSON(fiber.Map{
		"students": due,
		"total":    len(due),
	})
}

// SetLessonTime sets the lesson time for one weekday of a daily student.
func (dc *DailyPaymentController) SetLessonTime(c *fiber.Ctx) error {
	group, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	var req struct {
		Weekday *int   `json:"weekday"`
		Time    string `json:"time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Weekday == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "weekday is required",
		})
	}

	if err := dc.Daily.SetLessonTimeForDay(student.ID, *req.Weekday, req.Time); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "daily_lesson_times", student.ID, req)
	dc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, fiber.Map{
		"student_id": student.ID,
	})

	return c.JSON(fiber.Map{
		"message": "Lesson time updated successfully",
	})
}

// GetLessonTimes returns the weekday to time mapping for a daily student.
func (dc *DailyPaymentController) GetLessonTimes(c *fiber.Ctx) error {
	_, student, err := dc.findDailyStudent(c)
	if err != nil {
		return err
	}

	times := make(map[int]string, 7)
	for _, weekday := range dc.Daily.ScheduledWeekdays(student.ID) {
		times[weekday] = dc.Daily.LessonTimeForDay(student.ID, weekday)
	}

	return c.JSON(fiber.Map{
		"lesson_times": times,
	})
}

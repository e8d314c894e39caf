package controllers

import (
	"strconv"

	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services"
	"tutortrack/services/websocket"
	"tutortrack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StudentController struct {
	Hub   *websocket.Hub
	Daily *services.DailyPaymentService
}

type studentRequest struct {
	Name         string   `json:"name"`
	SelectedDays []int    `json:"selected_days"`
	PaymentType  string   `json:"payment_type"`
	Amount       *float64 `json:"amount"`
	Currency     string   `json:"currency"`
}

// findStudentInGroup loads a student by id and checks it belongs to the group.
func findStudentInGroup(group *models.Group, idParam string) (*models.Student, error) {
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid student ID")
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Student not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch student")
	}
	if student.GroupPin != group.Pin {
		return nil, fiber.NewError(fiber.StatusNotFound, "Student not found")
	}

	services.NormalizeStudent(&student)
	return &student, nil
}

// GetStudents returns all students of a group, normalized.
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
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
	services.NormalizeStudents(students)

	return c.JSON(fiber.Map{
		"students": students,
		"total":    len(students),
	})
}

// GetStudent returns one student.
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

// CreateStudent adds a student to a group and generates their lessons for the
// group's current week. Daily payment students get their weekday schedule
// mirrored into the daily tracker instead of persisted lessons.
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Name = utils.SanitizeString(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Student name is required",
		})
	}
	if req.PaymentType != "" && !utils.IsValidPaymentType(req.PaymentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment type. Must be: monthly or daily",
		})
	}
	if req.Currency != "" && !utils.IsValidCurrency(req.Currency) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid currency. Must be: TRY, RUB, AZN or USD",
		})
	}

	selectedDays := utils.UniqueWeekdays(req.SelectedDays)

	student := models.Student{
		GroupPin:          group.Pin,
		Name:              req.Name,
		SelectedDays:      selectedDays,
		WeeklyLessonCount: len(selectedDays),
		PaymentType:       req.PaymentType,
		Currency:          req.Currency,
	}
	if req.Amount != nil {
		student.Amount = *req.Amount
	}
	services.NormalizeStudent(&student)

	if student.PaymentType == models.PaymentTypeMonthly {
		student.Lessons = services.GenerateLessonDates(group.CurrentWeekStart, student.SelectedDays, group.WeekStartDay)
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	if student.PaymentType == models.PaymentTypeDaily {
		if err := sc.Daily.SetScheduledWeekdays(student.ID, student.SelectedDays); err != nil {
			logrus.WithError(err).WithField("student_id", student.ID).Warn("Failed to store daily schedule")
		}
	}

	middleware.LogActivity(c, group.Pin, "CREATE", "students", student.ID, student)
	sc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, student)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent changes a student's details. When the selected days change,
// the current week's lessons are regenerated from the new schedule; lessons
// in other weeks keep their history.
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != "" {
		student.Name = utils.SanitizeString(req.Name)
	}
	if req.PaymentType != "" {
		if !utils.IsValidPaymentType(req.PaymentType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid payment type. Must be: monthly or daily",
			})
		}
		student.PaymentType = req.PaymentType
	}
	if req.Currency != "" {
		if !utils.IsValidCurrency(req.Currency) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid currency. Must be: TRY, RUB, AZN or USD",
			})
		}
		student.Currency = req.Currency
	}
	if req.Amount != nil {
		student.Amount = *req.Amount
	}

	if req.SelectedDays != nil {
		newDays := utils.UniqueWeekdays(req.SelectedDays)
		student.SelectedDays = newDays
		student.WeeklyLessonCount = len(newDays)

		if student.PaymentType == models.PaymentTypeMonthly {
			services.RegenerateWeekLessons(student, group.CurrentWeekStart, group.WeekStartDay)
		} else if err := sc.Daily.SetScheduledWeekdays(student.ID, newDays); err != nil {
			logrus.WithError(err).WithField("student_id", student.ID).Warn("Failed to store daily schedule")
		}
	}

	if err := database.DB.Save(student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "students", student.ID, req)
	sc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, student)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent removes a student along with their ledger entries and daily
// tracker data.
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.MonthlyPayment{}).Error; err != nil {
			return err
		}
		return tx.Delete(student).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	if err := sc.Daily.ClearStudent(student.ID); err != nil {
		logrus.WithError(err).WithField("student_id", student.ID).Warn("Failed to clear daily tracker data")
	}

	middleware.LogActivity(c, group.Pin, "DELETE", "students", student.ID, nil)
	sc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, fiber.Map{"deleted_id": student.ID})

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}

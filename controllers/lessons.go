package controllers

import (
	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services"
	"tutortrack/services/websocket"

	"github.com/gofiber/fiber/v2"
)

type LessonController struct {
	Hub   *websocket.Hub
	Query *services.LessonQueryService
}

// mutateLesson loads the student, applies fn to the addressed lesson and
// persists the whole lesson list. The store replaces the list wholesale, so
// concurrent edits resolve last-write-wins.
func (lc *LessonController) mutateLesson(c *fiber.Ctx, action string, fn func(*models.Lesson) error) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	lesson, err := services.FindLesson(student, c.Params("lessonId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lesson not found",
		})
	}

	if err := fn(lesson); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := database.DB.Save(student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update lesson",
		})
	}

	middleware.LogActivity(c, group.Pin, action, "lessons", student.ID, lesson)
	lc.Hub.BroadcastToGroup(group.Pin, websocket.EventLessonUpdated, fiber.Map{
		"student_id": student.ID,
		"lesson":     lesson,
	})

	return c.JSON(fiber.Map{
		"message": "Lesson updated successfully",
		"lesson":  lesson,
		"status":  services.LessonStatus(*lesson),
	})
}

// ToggleCompletion flips a lesson between pending and completed. Cancelled
// lessons are left untouched.
func (lc *LessonController) ToggleCompletion(c *fiber.Ctx) error {
	return lc.mutateLesson(c, "TOGGLE_COMPLETION", func(lesson *models.Lesson) error {
		services.ToggleCompletion(lesson)
		return nil
	})
}

// ToggleCancellation flips a lesson between cancelled and not.
func (lc *LessonController) ToggleCancellation(c *fiber.Ctx) error {
	return lc.mutateLesson(c, "TOGGLE_CANCELLATION", func(lesson *models.Lesson) error {
		services.ToggleCancellation(lesson)
		return nil
	})
}

// SetLessonStatus moves a lesson directly to pending, completed or cancelled.
func (lc *LessonController) SetLessonStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	return lc.mutateLesson(c, "SET_STATUS", func(lesson *models.Lesson) error {
		return services.SetStatus(lesson, req.Status)
	})
}

// RestoreLesson returns a lesson to pending.
func (lc *LessonController) RestoreLesson(c *fiber.Ctx) error {
	return lc.mutateLesson(c, "RESTORE", func(lesson *models.Lesson) error {
		services.Restore(lesson)
		return nil
	})
}

// RescheduleLesson puts a cancelled lesson back on the board.
func (lc *LessonController) RescheduleLesson(c *fiber.Ctx) error {
	return lc.mutateLesson(c, "RESCHEDULE", func(lesson *models.Lesson) error {
		services.Reschedule(lesson)
		return nil
	})
}

// UpdateLessonTime changes a lesson's wall clock time.
func (lc *LessonController) UpdateLessonTime(c *fiber.Ctx) error {
	var req struct {
		Time string `json:"time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	return lc.mutateLesson(c, "UPDATE_TIME", func(lesson *models.Lesson) error {
		return services.UpdateLessonTime(lesson, req.Time)
	})
}

// ToggleLessonPaid flips the per-lesson paid flag used by daily payment
// aggregation. Payment state is independent of completion or cancellation.
func (lc *LessonController) ToggleLessonPaid(c *fiber.Ctx) error {
	return lc.mutateLesson(c, "TOGGLE_PAID", func(lesson *models.Lesson) error {
		services.TogglePaid(lesson)
		return nil
	})
}

// GetWeeklyView returns a student's seven day slots for the group's current
// week.
func (lc *LessonController) GetWeeklyView(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	view := services.WeeklyView(*student, group.CurrentWeekStart, group.WeekStartDay)

	return c.JSON(fiber.Map{
		"week_start": group.CurrentWeekStart,
		"days":       view,
	})
}

// GetTodaysLessons returns today's lessons across the whole group, persisted
// for monthly students and synthesized for daily ones, sorted by time.
func (lc *LessonController) GetTodaysLessons(c *fiber.Ctx) error {
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

	lessons := lc.Query.TodaysLessons(students, group.CurrentWeekStart, group.WeekStartDay)

	return c.JSON(fiber.Map{
		"lessons": lessons,
		"total":   len(lessons),
	})
}

// GetCancelledLessons returns every cancelled lesson in the group.
func (lc *LessonController) GetCancelledLessons(c *fiber.Ctx) error {
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

	lessons := services.CancelledLessons(students)

	return c.JSON(fiber.Map{
		"lessons": lessons,
		"total":   len(lessons),
	})
}

// GenerateWeekLessons makes sure a student has lessons for the group's
// current week, generating them from the selected days when absent.
func (lc *LessonController) GenerateWeekLessons(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}
	student, err := findStudentInGroup(group, c.Params("id"))
	if err != nil {
		return err
	}

	generated := services.EnsureWeekLessons(student, group.CurrentWeekStart, group.WeekStartDay)
	if generated {
		if err := database.DB.Save(student).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save generated lessons",
			})
		}
		middleware.LogActivity(c, group.Pin, "GENERATE", "lessons", student.ID, nil)
		lc.Hub.BroadcastToGroup(group.Pin, websocket.EventStudentsUpdated, student)
	}

	return c.JSON(fiber.Map{
		"generated": generated,
		"lessons":   services.LessonsForWeek(*student, group.CurrentWeekStart, group.WeekStartDay),
	})
}

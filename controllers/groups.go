package controllers

import (
	"time"

	"tutortrack/config"
	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services"
	"tutortrack/services/websocket"
	"tutortrack/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GroupController struct {
	Hub *websocket.Hub
}

// findGroupByPin loads a group by its pin. Shared by all controllers.
func findGroupByPin(pin string) (*models.Group, error) {
	if !utils.IsValidPin(pin) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid group pin, expected 6 digits")
	}

	var group models.Group
	if err := database.DB.Where("pin = ?", pin).First(&group).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "Group not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch group")
	}
	return &group, nil
}

// CreateGroup creates a new group with a freshly generated pin. The current
// week start is normalized to the week containing today.
func (gc *GroupController) CreateGroup(c *fiber.Ctx) error {
	var req struct {
		WeekStartDay *int `json:"week_start_day"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	weekStartDay := config.AppConfig.DefaultWeekStartDay
	if req.WeekStartDay != nil {
		if !utils.IsValidWeekday(*req.WeekStartDay) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "week_start_day must be 0-6",
			})
		}
		weekStartDay = *req.WeekStartDay
	}

	group := models.Group{
		WeekStartDay:     weekStartDay,
		CurrentWeekStart: services.WeekStart(time.Now(), weekStartDay),
	}

	// Retry on the off chance a generated pin collides with an existing group.
	for attempt := 0; attempt < 5; attempt++ {
		pin, err := utils.GeneratePin()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate group pin",
			})
		}
		group.Pin = pin

		if err := database.DB.Create(&group).Error; err == nil {
			middleware.LogActivity(c, group.Pin, "CREATE", "groups", group.ID, group)
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Group created successfully",
				"group":   group,
			})
		}
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to create group",
	})
}

// JoinGroup validates a pin and returns the matching group. The pin is the
// only credential; anyone holding it sees the board. The pin comes from the
// path or, on the bare /join route, from the body.
func (gc *GroupController) JoinGroup(c *fiber.Ctx) error {
	pin := c.Params("pin")
	if pin == "" {
		var req struct {
			Pin string `json:"pin"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		pin = req.Pin
	}

	group, err := findGroupByPin(pin)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Joined group successfully",
		"group":   group,
	})
}

// GetGroup returns a group with its students. Student records are normalized
// on the way out so older rows gain defaults for missing fields.
func (gc *GroupController) GetGroup(c *fiber.Ctx) error {
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
	group.Students = students

	return c.JSON(fiber.Map{
		"group": group,
	})
}

// UpdateGroupSettings changes the week start day. The current week start is
// renormalized so its weekday matches the new setting.
func (gc *GroupController) UpdateGroupSettings(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	var req struct {
		WeekStartDay *int `json:"week_start_day"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.WeekStartDay == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "week_start_day is required",
		})
	}
	if !utils.IsValidWeekday(*req.WeekStartDay) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "week_start_day must be 0-6",
		})
	}

	group.WeekStartDay = *req.WeekStartDay
	group.CurrentWeekStart = services.WeekStart(group.CurrentWeekStart, group.WeekStartDay)

	if err := database.DB.Save(group).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update group settings",
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "groups", group.ID, req)
	gc.Hub.BroadcastToGroup(group.Pin, websocket.EventWeekChanged, group)

	return c.JSON(fiber.Map{
		"message": "Group settings updated successfully",
		"group":   group,
	})
}

// NextWeek advances the group's current week by seven days and makes sure
// every monthly student has lessons generated for the new week.
func (gc *GroupController) NextWeek(c *fiber.Ctx) error {
	return gc.shiftWeek(c, services.NextWeek)
}

// PreviousWeek moves the group's current week back by seven days.
func (gc *GroupController) PreviousWeek(c *fiber.Ctx) error {
	return gc.shiftWeek(c, services.PreviousWeek)
}

// ResetWeek snaps the group's current week back to the week containing today.
func (gc *GroupController) ResetWeek(c *fiber.Ctx) error {
	return gc.shiftWeek(c, func(time.Time) time.Time {
		return time.Now()
	})
}

func (gc *GroupController) shiftWeek(c *fiber.Ctx, shift func(time.Time) time.Time) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	newWeekStart := services.WeekStart(shift(group.CurrentWeekStart), group.WeekStartDay)
	group.CurrentWeekStart = newWeekStart

	var students []models.Student
	if err := database.DB.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(group).Error; err != nil {
			return err
		}
		for idx := range students {
			services.NormalizeStudent(&students[idx])
			if services.EnsureWeekLessons(&students[idx], newWeekStart, group.WeekStartDay) {
				if err := tx.Save(&students[idx]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to change week",
		})
	}

	middleware.LogActivity(c, group.Pin, "UPDATE", "groups", group.ID, fiber.Map{
		"current_week_start": newWeekStart,
	})
	gc.Hub.BroadcastToGroup(group.Pin, websocket.EventWeekChanged, group)

	return c.JSON(fiber.Map{
		"message": "Week changed successfully",
		"group":   group,
	})
}

// DeleteGroup removes a group and everything scoped to its pin.
func (gc *GroupController) DeleteGroup(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_pin = ?", group.Pin).Delete(&models.Student{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_pin = ?", group.Pin).Delete(&models.MonthlyPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_pin = ?", group.Pin).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete group",
		})
	}

	middleware.LogActivity(c, group.Pin, "DELETE", "groups", group.ID, nil)

	return c.JSON(fiber.Map{
		"message": "Group deleted successfully",
	})
}

package controllers

import (
	"strconv"
	"time"

	"tutortrack/database"
	"tutortrack/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct{}

// GetNotifications returns a group's notifications, newest first. Pass
// unread=true to filter to unread ones.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	query := database.DB.Where("group_pin = ?", group.Pin).Order("created_at DESC")
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var notifications []models.Notification
	if err := query.Limit(100).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch notifications",
		})
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// MarkNotificationRead marks one notification as read.
func (nc *NotificationController) MarkNotificationRead(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("notificationId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid notification ID",
		})
	}

	var notification models.Notification
	if err := database.DB.First(&notification, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	if notification.GroupPin != group.Pin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	now := time.Now()
	notification.Read = true
	notification.ReadAt = &now
	if err := database.DB.Save(&notification).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notification",
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Notification marked as read",
		"notification": notification,
	})
}

// MarkAllNotificationsRead marks every unread notification of a group as
// read.
func (nc *NotificationController) MarkAllNotificationsRead(c *fiber.Ctx) error {
	group, err := findGroupByPin(c.Params("pin"))
	if err != nil {
		return err
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("group_pin = ? AND `read` = ?", group.Pin, false).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notifications",
		})
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": result.RowsAffected,
	})
}

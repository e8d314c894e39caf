package controllers

import (
	"tutortrack/services/websocket"
	"tutortrack/utils"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tutortrack/database"
	"tutortrack/models"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// WebSocketHandler returns a Fiber handler that validates the group pin and
// attaches the connection to the hub. Clients connect to
// ws://<host>/ws?pin=123456 and then receive group events.
func (wsc *WebSocketController) WebSocketHandler() fiber.Handler {
	return fiberws.New(func(c *fiberws.Conn) {
		pin := c.Query("pin")
		if !utils.IsValidPin(pin) {
			c.WriteMessage(fiberws.CloseMessage, []byte("Invalid pin"))
			c.Close()
			return
		}

		var group models.Group
		if err := database.DB.Where("pin = ?", pin).First(&group).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				logrus.WithError(err).Error("WebSocket group lookup failed")
			}
			c.WriteMessage(fiberws.CloseMessage, []byte("Group not found"))
			c.Close()
			return
		}

		wsc.hub.ServeFiberWS(c, pin)
	})
}

// GetWebSocketStats returns connection statistics.
func (wsc *WebSocketController) GetWebSocketStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wsc.hub.ClientCount(),
		"status":            "active",
	})
}

package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	fiberws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Event types pushed to subscribed clients when group data changes.
const (
	EventStudentsUpdated = "students_updated"
	EventLessonUpdated   = "lesson_updated"
	EventPaymentUpdated  = "payment_updated"
	EventWeekChanged     = "week_changed"
	EventNotification    = "notification"
)

// Hub maintains the set of active clients, each subscribed to one group pin,
// and pushes group-scoped events to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mutex sync.RWMutex
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection. Nil for Fiber connections, which are pumped
	// separately.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Group pin this client is subscribed to.
	groupPin string
}

// Message is the envelope pushed to clients.
type Message struct {
	Type     string      `json:"type"`
	GroupPin string      `json:"group_pin"`
	Data     interface{} `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The pin in the subscription is the only access control; origin
		// checks would not add anything for a pin-shared board.
		return true
	},
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run processes register and unregister requests. Call it in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			logrus.WithField("group_pin", client.groupPin).Debug("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			logrus.WithField("group_pin", client.groupPin).Debug("WebSocket client disconnected")
		}
	}
}

// BroadcastToGroup sends an event to every client subscribed to the group.
// Slow clients are dropped rather than blocking the broadcast.
func (h *Hub) BroadcastToGroup(groupPin, eventType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: eventType, GroupPin: groupPin, Data: data})
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.groupPin != groupPin {
			continue
		}
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

// GroupClientCount returns the number of clients subscribed to a group.
func (h *Hub) GroupClientCount(groupPin string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for client := range h.clients {
		if client.groupPin == groupPin {
			count++
		}
	}
	return count
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades a plain HTTP request and attaches the connection to the
// hub. Used outside the Fiber app (tests, alternative servers).
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, groupPin string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade error")
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		groupPin: groupPin,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// ServeFiberWS attaches an already-upgraded Fiber websocket connection to the
// hub. The read pump runs inline so the Fiber connection never crosses
// goroutines.
func (h *Hub) ServeFiberWS(c *fiberws.Conn, groupPin string) {
	client := &Client{
		hub:      h,
		send:     make(chan []byte, 256),
		groupPin: groupPin,
	}
	h.register <- client

	go h.fiberWritePump(client, c)
	h.fiberReadPump(client, c)
}

func (h *Hub) fiberWritePump(client *Client, c *fiberws.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister <- client
		c.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.WriteMessage(fiberws.CloseMessage, []byte{})
				return
			}
			if err := c.WriteMessage(fiberws.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(fiberws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) fiberReadPump(client *Client, c *fiberws.Conn) {
	defer func() {
		h.unregister <- client
		c.Close()
	}()

	c.SetReadLimit(maxMessageSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if fiberws.IsUnexpectedCloseError(err, fiberws.CloseGoingAway, fiberws.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("group_pin", client.groupPin).Debug("WebSocket unexpected close")
			}
			break
		}
		// Clients only listen; inbound frames are ignored.
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

package websockets

import (
	"context"
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/models"
	"palcontent/internal/types"
	"sync/atomic"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MESSAGE_TYPE_PING          = "ping"
	MESSAGE_TYPE_PONG          = "pong"
	MESSAGE_TYPE_EVENT         = "event"
	MESSAGE_TYPE_ERROR         = "error"
	MESSAGE_TYPE_AUTH_REQUEST  = "auth_request"
	MESSAGE_TYPE_AUTH_RESPONSE = "auth_response"
	MESSAGE_TYPE_AUTH_SUCCESS  = "auth_success"
	MESSAGE_TYPE_AUTH_FAILURE  = "auth_failure"
	PING_INTERVAL              = 30 * time.Second
	PONG_TIMEOUT               = 60 * time.Second
	WRITE_TIMEOUT              = 10 * time.Second
	MAX_MESSAGE_SIZE           = 64 * 1024
	SEND_CHANNEL_SIZE          = 64
	SYSTEM_CHANNEL             = "system"
)

// Channels relayed from the event bus to connected dashboards.
var relayedChannels = []events.Channel{
	events.BROADCAST_CHANNEL,
	events.SUBMISSIONS_CHANNEL,
	events.AI_REPORTS_CHANNEL,
	events.TECH_HUB_CHANNEL,
}

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenInfo, error)
}

type userLookup interface {
	GetByAuthUserID(ctx context.Context, tx *gorm.DB, authUserID string) (*models.User, error)
}

type subscriber interface {
	Subscribe(channel events.Channel, handler events.EventHandler) error
}

type Client struct {
	ID           string
	UserID       uuid.UUID
	FranchiseeID *uuid.UUID
	TechnicianID *uuid.UUID
	IsAdmin      bool
	IsTechnician bool
	Connection   *websocket.Conn
	Manager      *Manager
	status       atomic.Int32
	send         chan Message
}

func (c *Client) Status() int32 {
	return c.status.Load()
}

type Manager struct {
	hub      *Hub
	db       database.DB
	config   config.Config
	log      logger.Logger
	eventBus subscriber
	auth     tokenValidator
	users    userLookup
	done     chan struct{}
}

func New(
	db database.DB,
	eventBus subscriber,
	config config.Config,
	auth tokenValidator,
	users userLookup,
) (*Manager, error) {
	log := logger.New("websockets")

	manager := newManager(db, eventBus, config, auth, users)

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if err := manager.subscribeToEvents(); err != nil {
		close(manager.done)
		return nil, log.Function("New").Err("failed to subscribe websocket relay", err)
	}

	return manager, nil
}

func newManager(
	db database.DB,
	eventBus subscriber,
	config config.Config,
	auth tokenValidator,
	users userLookup,
) *Manager {
	return &Manager{
		hub: &Hub{
			register:   make(chan *Client),
			unregister: make(chan *Client),
			clients:    make(map[string]*Client),
		},
		db:       db,
		config:   config,
		log:      logger.New("websockets"),
		eventBus: eventBus,
		auth:     auth,
		users:    users,
		done:     make(chan struct{}),
	}
}

// Close stops the hub loop. Open connections are left to their pumps.
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")
	clientID := uuid.New().String()

	client := &Client{
		ID:         clientID,
		UserID:     uuid.Nil,
		Connection: c,
		Manager:    m,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	if err := client.sendAuthRequest(); err != nil {
		if err := c.Close(); err != nil {
			log.Er("failed to close connection", err)
		}
		return
	}

	select {
	case m.hub.register <- client:
	case <-m.done:
		_ = c.Close()
		return
	}
	defer func() {
		log.Debug("Client disconnected", "clientID", clientID)
		m.leave(client)
		if err := c.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	client.startAuthTimeout()
	go client.readPump()
	client.writePump()
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer func() {
		c.Manager.leave(c)
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
			log.Er("failed to set read deadline in pong handler", err, "clientID", c.ID)
		}
		return nil
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				log.Er("Unexpected close error", err, "clientID", c.ID)
			}
			break
		}

		message.ID = uuid.New().String()
		message.Timestamp = time.Now()

		c.routeMessage(message)
	}
}

func (c *Client) routeMessage(message Message) {
	log := c.Manager.log.Function("routeMessage")

	if message.Type == MESSAGE_TYPE_AUTH_RESPONSE {
		c.handleAuthResponse(message)
		return
	}

	if c.Status() != STATUS_AUTHENTICATED {
		c.handleUnauthenticatedMessage(message)
		return
	}

	switch message.Type {
	case MESSAGE_TYPE_PING:
		c.Manager.reply(c, Message{
			ID:        uuid.New().String(),
			Type:      MESSAGE_TYPE_PONG,
			Channel:   SYSTEM_CHANNEL,
			Timestamp: time.Now(),
		})
	default:
		log.Debug("Ignoring client message", "clientID", c.ID, "type", message.Type)
	}
}

// enqueue drops the message when the client's buffer is full. Callers hold
// the hub lock.
func (c *Client) enqueue(message Message) bool {
	select {
	case c.send <- message:
		return true
	default:
		c.Manager.log.Function("enqueue").Warn("Client send channel full, dropping message", "clientID", c.ID)
		return false
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("WebSocket write error", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline for ping", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) subscribeToEvents() error {
	log := m.log.Function("subscribeToEvents")

	for _, channel := range relayedChannels {
		if err := m.eventBus.Subscribe(channel, m.relay); err != nil {
			return log.Err("failed to subscribe", err, "channel", channel)
		}
	}
	log.Info("Relaying events to websocket clients", "channels", len(relayedChannels))
	return nil
}

func (m *Manager) relay(event events.Event) error {
	sent := m.Deliver(event)
	m.log.Function("relay").Debug("Event relayed", "eventID", event.ID, "type", event.Type, "clients", sent)
	return nil
}

// MessageFromEvent converts a bus event to the client wire shape.
func MessageFromEvent(event events.Event) Message {
	message := Message{
		ID:        event.ID,
		Type:      MESSAGE_TYPE_EVENT,
		Channel:   event.Channel.String(),
		Action:    string(event.Type),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
	if event.UserID != nil {
		message.UserID = event.UserID.String()
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	return message
}

// ShouldDeliver routes an event: user-addressed events go to that user only,
// franchise events to the franchise's users and admins, the rest to everyone
// authenticated. A franchise event that names a technician skips the
// franchise's other technicians.
func ShouldDeliver(client *Client, event events.Event) bool {
	if client.Status() != STATUS_AUTHENTICATED {
		return false
	}
	if event.UserID != nil {
		return client.UserID == *event.UserID
	}
	if event.FranchiseeID == nil {
		return true
	}
	if client.IsAdmin {
		return true
	}
	if client.FranchiseeID == nil || *client.FranchiseeID != *event.FranchiseeID {
		return false
	}
	if event.TechnicianID != nil && client.IsTechnician {
		return client.TechnicianID != nil && *client.TechnicianID == *event.TechnicianID
	}
	return true
}

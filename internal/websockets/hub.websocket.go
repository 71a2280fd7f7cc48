package websockets

import (
	"palcontent/internal/events"
	"palcontent/internal/metrics"
	"sync"
)

const (
	STATUS_UNAUTHENTICATED int32 = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)
		case client := <-h.unregister:
			m.unregisterClient(client)
		case <-m.done:
			m.log.Function("run").Info("Websocket hub stopped")
			return
		}
	}
}

// leave hands the client to the hub unless the hub is already stopped.
func (m *Manager) leave(client *Client) {
	select {
	case m.hub.unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	m.hub.clients[client.ID] = client
	metrics.WebsocketClients.Set(float64(len(m.hub.clients)))
	m.hub.mutex.Unlock()

	m.log.Function("registerClient").Debug("Client registered", "clientID", client.ID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	_, ok := m.hub.clients[client.ID]
	if ok {
		delete(m.hub.clients, client.ID)
		client.status.Store(STATUS_CLOSED)
		close(client.send)
		metrics.WebsocketClients.Set(float64(len(m.hub.clients)))
	}
	m.hub.mutex.Unlock()

	if !ok {
		return
	}

	m.log.Function("unregisterClient").Info(
		"Client unregistered",
		"clientID",
		client.ID,
		"userID",
		client.UserID,
	)
}

// ClientCount reports registered connections, authenticated or not.
func (m *Manager) ClientCount() int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	return len(m.hub.clients)
}

// reply queues a message for one client outside the hub's fan-out.
func (m *Manager) reply(client *Client, message Message) bool {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	if client.Status() == STATUS_CLOSED {
		return false
	}
	return client.enqueue(message)
}

// Deliver queues the event for every client allowed to see it and returns
// how many clients received it.
func (m *Manager) Deliver(event events.Event) int {
	message := MessageFromEvent(event)

	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	sent := 0
	for _, client := range m.hub.clients {
		if !ShouldDeliver(client, event) {
			continue
		}
		if client.enqueue(message) {
			sent++
		}
	}
	return sent
}

package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub fans notifications out to every open connection of a user.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan *delivery
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	stopped    bool
	mu         sync.RWMutex

	// pingPeriod paces keepalive pings and token revalidation.
	pingPeriod time.Duration
}

type delivery struct {
	userID string
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *delivery, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		pingPeriod: pingPeriod,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, conns := range h.clients {
				for client := range conns {
					client.Close()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				client.Close()
			} else {
				if h.clients[client.userID] == nil {
					h.clients[client.userID] = make(map[*Client]bool)
				}
				h.clients[client.userID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok && conns[client] {
				delete(conns, client)
				if len(conns) == 0 {
					delete(h.clients, client.userID)
				}
				client.Close()
			}
			h.mu.Unlock()

		case d := <-h.deliver:
			h.mu.RLock()
			for client := range h.clients[d.userID] {
				if !client.trySend(d.data) {
					log.Printf("websocket: dropping message for slow client of user %s", d.userID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop closes every client and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds a client and starts its pumps.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

// Notify queues a message for every connection of userID. It never blocks the caller
// on slow connections; a full queue drops the message.
func (h *Hub) Notify(userID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		log.Printf("ERROR [websocket.Notify] failed to build %s message: %v", event, err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ERROR [websocket.Notify] failed to marshal %s message: %v", event, err)
		return
	}

	select {
	case h.deliver <- &delivery{userID: userID, data: data}:
	case <-h.done:
	default:
		log.Printf("websocket: delivery queue full, dropping %s for user %s", event, userID)
	}
}

// DisconnectStale closes every connection of userID opened with a token other than
// currentToken and returns how many were closed. An empty currentToken closes them all.
// Notifications queued after it returns never reach the closed connections.
func (h *Hub) DisconnectStale(userID, currentToken string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[userID]
	closed := 0
	for client := range conns {
		if currentToken != "" && client.token == currentToken {
			continue
		}
		delete(conns, client)
		client.revoke()
		closed++
	}
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	return closed
}

// ConnectionCount returns the number of open connections for userID.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

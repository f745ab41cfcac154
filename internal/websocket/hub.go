package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/model"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one subscriber of a generation's related topics
type Client struct {
	GenerationID string
	Send         chan []byte
}

// Hub fans out related topics updates to subscribed connections
type Hub struct {
	// Clients grouped by generation ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	log zerolog.Logger
	mu  sync.RWMutex
}

// BroadcastMessage is a message for the subscribers of one generation
type BroadcastMessage struct {
	GenerationID string
	Message      []byte
}

// NewHub creates a new Hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws-hub").Logger(),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.GenerationID] == nil {
				h.clients[client.GenerationID] = make(map[*Client]bool)
			}
			h.clients[client.GenerationID][client] = true
			h.mu.Unlock()
			h.log.Debug().Str("generation", client.GenerationID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.Debug().Str("generation", client.GenerationID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.GenerationID] {
				select {
				case client.Send <- msg.Message:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

// Stop ends the main loop
func (h *Hub) Stop() {
	close(h.done)
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.GenerationID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.GenerationID)
	}
}

// Subscribe registers a client for a generation
func (h *Hub) Subscribe(generationID string) *Client {
	client := &Client{
		GenerationID: generationID,
		Send:         make(chan []byte, sendBufferSize),
	}
	select {
	case h.register <- client:
	case <-h.done:
	}
	return client
}

// Unsubscribe removes a client
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of clients of a generation
func (h *Hub) Subscribers(generationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[generationID])
}

// BroadcastStatus sends a status change to the generation's subscribers
func (h *Hub) BroadcastStatus(generationID string, status model.JobStatus) {
	h.send(generationID, model.WSStatusMessage{
		Type:         model.WSMessageTypeStatus,
		GenerationID: generationID,
		Status:       status,
	})
}

// BroadcastComplete sends the finished topics to the generation's subscribers
func (h *Hub) BroadcastComplete(generationID string, result interface{}) {
	h.send(generationID, model.WSCompleteMessage{
		Type:         model.WSMessageTypeComplete,
		GenerationID: generationID,
		Result:       result,
	})
}

// BroadcastError sends an error to the generation's subscribers
func (h *Hub) BroadcastError(generationID string, code, message string) {
	h.send(generationID, model.WSErrorMessage{
		Type:         model.WSMessageTypeError,
		GenerationID: generationID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Hub) send(generationID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal websocket message")
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{GenerationID: generationID, Message: data}:
	case <-h.done:
	}
}

// HandleConnection serves one WebSocket connection until it closes
func (h *Hub) HandleConnection(c *websocket.Conn, generationID string) {
	client := h.Subscribe(generationID)
	defer h.Unsubscribe(client)

	pong := make(chan struct{}, 1)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-pong:
				data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Str("generation", generationID).Msg("websocket read failed")
			}
			return
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == model.WSMessageTypePing {
			select {
			case pong <- struct{}{}:
			default:
			}
		}
	}
}

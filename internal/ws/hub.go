// Package ws is the chat relay: a thin broadcast over named rooms with a
// best-effort persisted copy of each message. Delivery order is whatever
// order currently connected members receive writes in; there is no queueing,
// retry or backpressure.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-service/internal/model"
)

// Message is the wire format relayed between room members
type Message struct {
	Message   string    `json:"message"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer per conn
}

func (c *client) write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Hub tracks room membership and fans messages out
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*client]struct{}

	db             *gorm.DB
	log            *zap.Logger
	allowedOrigins []string
}

// NewHub returns a hub persisting messages to db
func NewHub(db *gorm.DB, log *zap.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		rooms:          map[string]map[*client]struct{}{},
		db:             db,
		log:            log,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			h.log.Warn("websocket origin rejected", zap.String("origin", origin))
			return false
		},
	}
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = map[*client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) broadcast(room string, msg Message) {
	h.mu.Lock()
	members := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if err := c.write(msg); err != nil {
			h.log.Debug("websocket write failed", zap.String("room", room), zap.Error(err))
		}
	}
}

// Serve upgrades the request and relays messages for one member of room.
// Blocks until the peer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, room string, senderID uint, schoolID string) error {
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn}
	h.join(room, c)
	defer func() {
		h.leave(room, c)
		conn.Close()
	}()

	for {
		var in Message
		if err := conn.ReadJSON(&in); err != nil {
			return nil
		}
		if in.Message == "" {
			continue
		}
		in.Timestamp = time.Now()

		// Best effort: delivery does not depend on the row landing
		record := model.ChatMessage{
			Room:      room,
			SenderID:  senderID,
			Recipient: in.Recipient,
			Body:      in.Message,
			SchoolID:  schoolID,
		}
		if err := h.db.Create(&record).Error; err != nil {
			h.log.Warn("chat message persist failed", zap.String("room", room), zap.Error(err))
		}

		h.broadcast(room, in)
	}
}

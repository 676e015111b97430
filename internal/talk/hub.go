// hub.go implements live message fan-out over websockets. Separated
// from talk.go so the persistence path has no transport dependency; a
// host that only wants stored topics never constructs a Hub.
package talk

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans posted messages out to websocket subscribers per topic. A
// connection that fails a write is dropped from the topic; the client
// is expected to reconnect and reload the topic.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*websocket.Conn]bool)}
}

// Subscribe registers a connection for a topic's messages.
func (h *Hub) Subscribe(topicID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topicID] == nil {
		h.subs[topicID] = make(map[*websocket.Conn]bool)
	}
	h.subs[topicID][conn] = true
}

// Unsubscribe removes a connection from a topic. The caller closes the
// connection.
func (h *Hub) Unsubscribe(topicID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[topicID], conn)
	if len(h.subs[topicID]) == 0 {
		delete(h.subs, topicID)
	}
}

// Broadcast sends a message to every subscriber of a topic, dropping
// connections whose writes fail.
func (h *Hub) Broadcast(topicID string, msg *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs[topicID] {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(h.subs[topicID], conn)
		}
	}
	if len(h.subs[topicID]) == 0 {
		delete(h.subs, topicID)
	}
}

// Subscribers reports the current subscriber count for a topic.
func (h *Hub) Subscribers(topicID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topicID])
}

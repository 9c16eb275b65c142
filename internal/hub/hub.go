// Package hub tracks live gateway connections and the rooms they subscribe
// to, and fans events out to room members.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

type broadcastMsg struct {
	room    domain.RoomID
	payload []byte
	// exclude is a connection id that must not receive the event,
	// typically the originator.
	exclude string
}

// Hub is the single broadcast authority. All fan-out goes through its Run
// loop so events reach members in the order their triggers were processed.
type Hub struct {
	mu sync.RWMutex

	// clients is every registered connection, keyed by connection id.
	clients map[string]*Client
	// rooms maps a room to the connections subscribed to it.
	rooms map[domain.RoomID]map[string]*Client
	// memberRooms is the reverse index used to clean up all subscriptions
	// when a connection goes away.
	memberRooms map[string]map[domain.RoomID]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg

	done chan struct{}
}

// New creates a hub. Call Run in a goroutine before registering clients.
func New() *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[domain.RoomID]map[string]*Client),
		memberRooms: make(map[string]map[domain.RoomID]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan broadcastMsg, 64),
		done:        make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast requests until Stop is
// called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		case <-h.done:
			return
		}
	}
}

// Stop terminates the Run loop and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.rooms = make(map[domain.RoomID]map[string]*Client)
	h.memberRooms = make(map[string]map[domain.RoomID]struct{})
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a connection and all its room subscriptions.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	l := log.L()
	l.Debug().Str(log.FieldConnID, c.ID).Msg("client registered")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)

	// Drop every room subscription the connection held. Both directions of
	// the index are updated together so no stale entry survives.
	for room := range h.memberRooms[c.ID] {
		if members, ok := h.rooms[room]; ok {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.memberRooms, c.ID)

	close(c.Send)
	l := log.L()
	l.Debug().Str(log.FieldConnID, c.ID).Msg("client unregistered")
}

// JoinRoom subscribes a connection to a room. It reports whether the
// connection was already subscribed, so a repeated join can confirm without
// duplicating delivery.
func (h *Hub) JoinRoom(c *Client, room domain.RoomID) (alreadyJoined bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.memberRooms[c.ID][room]; ok {
		return true
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c

	if h.memberRooms[c.ID] == nil {
		h.memberRooms[c.ID] = make(map[domain.RoomID]struct{})
	}
	h.memberRooms[c.ID][room] = struct{}{}
	return false
}

// LeaveRoom unsubscribes a connection from a room. It reports whether the
// connection was subscribed at all.
func (h *Hub) LeaveRoom(c *Client, room domain.RoomID) (wasMember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.memberRooms[c.ID][room]; !ok {
		return false
	}

	delete(h.memberRooms[c.ID], room)
	if len(h.memberRooms[c.ID]) == 0 {
		delete(h.memberRooms, c.ID)
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	return true
}

// InRoom reports whether a connection is currently subscribed to a room.
func (h *Hub) InRoom(c *Client, room domain.RoomID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.memberRooms[c.ID][room]
	return ok
}

// MembersOf returns the identities of the authenticated connections
// currently subscribed to a room, deduplicated by user.
func (h *Hub) MembersOf(room domain.RoomID) []domain.UserRef {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uint]struct{})
	var users []domain.UserRef
	for _, client := range h.rooms[room] {
		identity, ok := client.Session.Identity()
		if !ok {
			continue
		}
		if _, dup := seen[identity.UserID]; dup {
			continue
		}
		seen[identity.UserID] = struct{}{}
		users = append(users, identity.Ref())
	}
	return users
}

// Broadcast queues an event for every connection in a room, optionally
// excluding one connection id. The event is serialized once here so every
// member receives identical bytes.
func (h *Hub) Broadcast(room domain.RoomID, event interface{}, excludeConnID string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- broadcastMsg{room: room, payload: payload, exclude: excludeConnID}:
	case <-h.done:
	}
	return nil
}

func (h *Hub) deliver(msg broadcastMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.rooms[msg.room] {
		if id == msg.exclude {
			continue
		}
		select {
		case client.Send <- msg.payload:
		default:
			// Slow consumer. Dropping the event keeps one dead peer from
			// stalling delivery to the rest of the room.
			l := log.L()
			l.Warn().Str(log.FieldConnID, id).Msg("send buffer full, dropping event")
		}
	}
}

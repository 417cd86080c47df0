package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/castlight-live/castlight/pkg/metrics"
)

// Hub manages WebSocket sessions and their room memberships. Each process
// has one Hub instance; all fan-out goes through Emit.
type Hub struct {
	// Active sessions: session_id → *Session
	sessions map[string]*Session
	mu       sync.RWMutex

	// Room membership: room key → set of session_ids
	rooms  map[string]map[string]bool
	roomMu sync.RWMutex

	// Resolver for join authorization
	resolver JoinResolver

	// Write timeout for WebSocket sends
	writeTimeout time.Duration
}

// Session represents a single WebSocket client.
//
// rooms is accessed WITHOUT a lock. This is safe because all reads and
// writes (join, leave, unregisterSession) happen on the single goroutine
// that owns this session (HandleConnection's read loop and its deferred
// cleanup). If a Session is ever mutated from a different goroutine, rooms
// must be protected by a mutex.
type Session struct {
	ID     string
	Conn   *websocket.Conn
	UserID int64 // 0 until an authenticated join succeeds

	token  string // query-string token, default for joins
	rooms  map[string]bool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a Hub.
func NewHub(resolver JoinResolver, writeTimeout time.Duration) *Hub {
	if resolver == nil {
		panic("NewHub: resolver must not be nil")
	}
	return &Hub{
		sessions:     make(map[string]*Session),
		rooms:        make(map[string]map[string]bool),
		resolver:     resolver,
		writeTimeout: writeTimeout,
	}
}

// HandleConnection manages the lifecycle of a single WebSocket session.
// Called by the WebSocket HTTP handler after upgrade; blocks until the
// connection closes. token and userIDHint come from the upgrade request's
// query string: a valid token binds the session to its user room right
// away, and an anonymous userIDHint binds an overlay to its owner's room
// the way overlay pages identify themselves.
func (h *Hub) HandleConnection(parentCtx context.Context, conn *websocket.Conn, token string, userIDHint int64) {
	sessionID := uuid.New().String()
	ctx, cancel := context.WithCancel(parentCtx)

	s := &Session{
		ID:     sessionID,
		Conn:   conn,
		token:  token,
		rooms:  make(map[string]bool),
		ctx:    ctx,
		cancel: cancel,
	}

	h.registerSession(s)
	defer h.unregisterSession(s)

	// Send connection established message
	h.sendJSON(s, map[string]string{
		"type":       "connection.established",
		"session_id": sessionID,
	})

	// Connect-time binding: a token or a user_id query parameter joins the
	// session to its user room before any explicit join message.
	if token != "" || userIDHint != 0 {
		h.handleJoin(ctx, s, &ClientMessage{Action: "join", UserID: userIDHint})
	}

	// Read loop — process client messages until the connection closes
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Connection closed or errored — exit read loop
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Invalid WebSocket message",
				"session_id", sessionID, "error", err)
			h.sendJSON(s, &ErrorPayload{Type: EventError, Message: "invalid message"})
			continue
		}

		h.handleClientMessage(ctx, s, &msg)
	}
}

// Emit delivers one event payload to every session in the given rooms.
// A session present in several target rooms receives the event once.
// Delivery is best-effort: failures are logged and counted, never returned.
func (h *Hub) Emit(event string, payload any, rooms ...Room) {
	if len(rooms) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal event payload", "event", event, "error", err)
		return
	}

	// Collect recipient ids under the room lock, deduplicated across rooms.
	h.roomMu.RLock()
	idSet := make(map[string]bool)
	for _, room := range rooms {
		for id := range h.rooms[room.Key()] {
			idSet[id] = true
		}
	}
	h.roomMu.RUnlock()
	if len(idSet) == 0 {
		return
	}

	// Snapshot session pointers under the session lock, then release before
	// sending. Writes can take up to writeTimeout each and must not stall
	// session register/unregister.
	h.mu.RLock()
	recipients := make([]*Session, 0, len(idSet))
	for id := range idSet {
		if s, ok := h.sessions[id]; ok {
			recipients = append(recipients, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range recipients {
		if err := h.sendRaw(s, data); err != nil {
			metrics.IncEventSendFailure(event)
			slog.Warn("Failed to send event to session",
				"event", event, "session_id", s.ID, "error", err)
			continue
		}
		metrics.IncEventEmitted(event)
	}
}

// ActiveSessions returns the count of open WebSocket sessions.
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// memberCount returns the number of sessions in a room.
// Unexported — used by tests to poll instead of sleeping.
func (h *Hub) memberCount(roomKey string) int {
	h.roomMu.RLock()
	defer h.roomMu.RUnlock()
	return len(h.rooms[roomKey])
}

// handleClientMessage dispatches a client message to the appropriate handler.
func (h *Hub) handleClientMessage(ctx context.Context, s *Session, msg *ClientMessage) {
	switch msg.Action {
	case "join":
		h.handleJoin(ctx, s, msg)

	case "leave":
		if msg.Room == "" {
			h.sendJSON(s, &ErrorPayload{Type: EventError, Message: "room is required for leave"})
			return
		}
		h.leave(s, msg.Room)

	case "ping":
		h.sendJSON(s, map[string]string{"type": "pong"})

	default:
		h.sendJSON(s, &ErrorPayload{Type: EventError, Message: "unknown action"})
	}
}

// handleJoin resolves a join attempt and enters the granted rooms. Any
// resolution failure is reported to the session as an error event and
// nothing is joined.
func (h *Hub) handleJoin(ctx context.Context, s *Session, msg *ClientMessage) {
	token := msg.Token
	if token == "" {
		token = s.token
	}
	grant, err := h.resolver.ResolveJoin(ctx, &JoinRequest{
		Token:     token,
		Project:   msg.Project,
		Room:      msg.Room,
		UserID:    msg.UserID,
		RoomType:  msg.RoomType,
		ChannelID: msg.ChannelID,
	})
	if err != nil {
		slog.Info("Join rejected",
			"session_id", s.ID, "project", msg.Project, "error", err)
		h.sendJSON(s, &ErrorPayload{Type: EventError, Message: err.Error()})
		return
	}

	keys := make([]string, 0, len(grant.Rooms))
	for _, room := range grant.Rooms {
		key := room.Key()
		h.join(s, key)
		keys = append(keys, key)
	}
	if grant.UserID != 0 {
		s.UserID = grant.UserID
	}

	h.sendJSON(s, &JoinedPayload{Type: EventJoined, Project: grant.Project, Rooms: keys})
}

// join adds the session to a room. Idempotent.
func (h *Hub) join(s *Session, roomKey string) {
	h.roomMu.Lock()
	members, exists := h.rooms[roomKey]
	if !exists {
		members = make(map[string]bool)
		h.rooms[roomKey] = members
	}
	if !members[s.ID] {
		members[s.ID] = true
		metrics.RoomMembers.Inc()
	}
	h.roomMu.Unlock()

	s.rooms[roomKey] = true
}

// leave removes the session from a room. Idempotent.
func (h *Hub) leave(s *Session, roomKey string) {
	h.roomMu.Lock()
	if members, exists := h.rooms[roomKey]; exists {
		if members[s.ID] {
			delete(members, s.ID)
			metrics.RoomMembers.Dec()
		}
		if len(members) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	h.roomMu.Unlock()

	delete(s.rooms, roomKey)
}

// registerSession adds a session to the tracking map.
func (h *Hub) registerSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	metrics.WSConnections.Inc()
}

// unregisterSession removes a session from every room and releases it.
// Pending emits to the departed session fail their write and are dropped.
func (h *Hub) unregisterSession(s *Session) {
	for roomKey := range s.rooms {
		h.leave(s, roomKey)
	}

	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	metrics.WSConnections.Dec()

	s.cancel()
	_ = s.Conn.Close(websocket.StatusNormalClosure, "")
}

// sendJSON marshals and sends a JSON message to a single session.
func (h *Hub) sendJSON(s *Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal WebSocket message",
			"session_id", s.ID, "error", err)
		return
	}
	if err := h.sendRaw(s, data); err != nil {
		slog.Warn("Failed to send WebSocket message",
			"session_id", s.ID, "error", err)
	}
}

// sendRaw sends raw bytes to a single session with a write timeout.
func (h *Hub) sendRaw(s *Session, data []byte) error {
	writeCtx, cancel := context.WithTimeout(s.ctx, h.writeTimeout)
	defer cancel()
	return s.Conn.Write(writeCtx, websocket.MessageText, data)
}

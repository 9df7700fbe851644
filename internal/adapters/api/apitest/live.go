package apitest

import (
	"encoding/json"
	"net/http"
	"sync"

	"aucto-auction-client/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// liveConn is one accepted websocket. Writes go through send so only the
// writer goroutine touches the connection.
type liveConn struct {
	id      string
	userID  string
	conn    *websocket.Conn
	send    chan outbound.Event
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

func (c *liveConn) push(event outbound.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	select {
	case c.send <- event:
	default:
	}
}

func (c *liveConn) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.done)
	c.conn.Close()
}

func (c *liveConn) writer() {
	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// liveHub tracks rooms the way a pub/sub broadcaster tracks channels:
// connections per room and rooms per connection.
type liveHub struct {
	server   *Server
	upgrader websocket.Upgrader

	mu          sync.Mutex
	conns       map[string]*liveConn
	rooms       map[string]map[string]bool // auctionID -> connID
	connToRooms map[string]map[string]bool // connID -> auctionID
	received    map[outbound.EventType]int
	dials       int
}

func newLiveHub(s *Server) *liveHub {
	return &liveHub{
		server: s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:       make(map[string]*liveConn),
		rooms:       make(map[string]map[string]bool),
		connToRooms: make(map[string]map[string]bool),
		received:    make(map[outbound.EventType]int),
	}
}

// Connections is the number of open live connections
func (s *Server) Connections() int {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return len(s.live.conns)
}

// Dials counts accepted websocket handshakes
func (s *Server) Dials() int {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return s.live.dials
}

// RoomSize is the number of connections joined to an auction room
func (s *Server) RoomSize(auctionID string) int {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return len(s.live.rooms[auctionID])
}

// Received counts client-sent events by type
func (s *Server) Received(eventType outbound.EventType) int {
	s.live.mu.Lock()
	defer s.live.mu.Unlock()
	return s.live.received[eventType]
}

func (h *liveHub) serve(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	acc, ok := h.server.userFromToken(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &liveConn{
		id:     uuid.NewString(),
		userID: acc.user.ID,
		conn:   conn,
		send:   make(chan outbound.Event, 64),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.dials++
	h.mu.Unlock()

	go c.writer()
	go h.reader(c)
}

func (h *liveHub) reader(c *liveConn) {
	defer h.drop(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame outbound.Event
		if err := json.Unmarshal(data, &frame); err != nil || frame.AuctionID == "" {
			continue
		}

		h.mu.Lock()
		h.received[frame.Type]++
		h.mu.Unlock()

		switch frame.Type {
		case outbound.EventJoinAuction:
			h.join(c, frame.AuctionID)
		case outbound.EventLeaveAuction:
			h.leave(c, frame.AuctionID)
		case outbound.EventBidPlaced:
			// Echo only. Authoritative updates come from REST writes.
		}
	}
}

func (h *liveHub) join(c *liveConn, auctionID string) {
	h.mu.Lock()
	if h.rooms[auctionID] == nil {
		h.rooms[auctionID] = make(map[string]bool)
	}
	if h.connToRooms[c.id] == nil {
		h.connToRooms[c.id] = make(map[string]bool)
	}
	h.rooms[auctionID][c.id] = true
	h.connToRooms[c.id][auctionID] = true
	active := len(h.rooms[auctionID])
	h.mu.Unlock()

	c.push(outbound.Event{Type: outbound.EventAuctionJoined, AuctionID: auctionID, ActiveUsers: active})
	h.broadcast(outbound.Event{Type: outbound.EventUserJoined, AuctionID: auctionID, ActiveUsers: active}, c.id)
}

func (h *liveHub) leave(c *liveConn, auctionID string) {
	h.mu.Lock()
	_, joined := h.rooms[auctionID][c.id]
	delete(h.rooms[auctionID], c.id)
	delete(h.connToRooms[c.id], auctionID)
	active := len(h.rooms[auctionID])
	if active == 0 {
		delete(h.rooms, auctionID)
	}
	h.mu.Unlock()

	if joined {
		h.broadcast(outbound.Event{Type: outbound.EventUserLeft, AuctionID: auctionID, ActiveUsers: active}, c.id)
	}
}

func (h *liveHub) drop(c *liveConn) {
	h.mu.Lock()
	rooms := make([]string, 0, len(h.connToRooms[c.id]))
	for auctionID := range h.connToRooms[c.id] {
		rooms = append(rooms, auctionID)
	}
	h.mu.Unlock()

	for _, auctionID := range rooms {
		h.leave(c, auctionID)
	}

	h.mu.Lock()
	delete(h.conns, c.id)
	delete(h.connToRooms, c.id)
	h.mu.Unlock()
	c.stop()
}

// broadcast pushes event to every connection in the room except skip
func (h *liveHub) broadcast(event outbound.Event, skip string) {
	h.mu.Lock()
	targets := make([]*liveConn, 0, len(h.rooms[event.AuctionID]))
	for connID := range h.rooms[event.AuctionID] {
		if connID == skip {
			continue
		}
		if c, ok := h.conns[connID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.push(event)
	}
}

func (h *liveHub) closeAll() {
	h.mu.Lock()
	conns := make([]*liveConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.stop()
	}
}

// CloseLive drops every live connection as a server restart would
func (s *Server) CloseLive() {
	s.live.closeAll()
}

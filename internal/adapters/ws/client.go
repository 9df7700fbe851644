package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"aucto-auction-client/internal/config"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const handshakeTimeout = 10 * time.Second

var _ outbound.LiveChannel = (*Client)(nil)

// TokenSource supplies the bearer token used for the handshake
type TokenSource interface {
	Token() string
}

// Client is the process-wide live channel. It holds at most one connection,
// dialled on the first Join and closed when the last room leaves.
type Client struct {
	url         string
	tokens      TokenSource
	dialer      *websocket.Dialer
	maxWorkers  int
	maxCapacity int

	mu    sync.Mutex
	conn  *connection
	rooms map[string]*Room // auctionID -> room

	logger zerolog.Logger
}

type ClientParams struct {
	URL             string
	Tokens          TokenSource
	ReadBufferSize  int
	WriteBufferSize int
	MaxWorkers      int
	MaxCapacity     int
	Logger          zerolog.Logger
}

// NewClient creates the live channel without connecting
func NewClient(params ClientParams) *Client {
	maxWorkers := params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = config.WSMaxWorkers
	}
	maxCapacity := params.MaxCapacity
	if maxCapacity <= 0 {
		maxCapacity = config.WSMaxCapacity
	}

	return &Client{
		url:    params.URL,
		tokens: params.Tokens,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   params.ReadBufferSize,
			WriteBufferSize:  params.WriteBufferSize,
		},
		maxWorkers:  maxWorkers,
		maxCapacity: maxCapacity,
		rooms:       make(map[string]*Room),
		logger:      params.Logger.With().Str("component", "ws_client").Logger(),
	}
}

// Join subscribes handler to one auction room. The room starts Connecting
// and moves to Joined once the server acknowledges.
func (c *Client) Join(ctx context.Context, auctionID string, handler outbound.EventHandler) (outbound.Room, error) {
	if auctionID == "" {
		return nil, shared.ErrAuctionIDRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.rooms[auctionID]; exists {
		return nil, shared.ErrAlreadyJoined
	}

	room := newRoom(c, auctionID, handler)
	room.setState(outbound.RoomConnecting)

	if c.conn == nil {
		conn, err := c.dial(ctx)
		if err != nil {
			room.setState(outbound.RoomDisconnected)
			return nil, err
		}
		c.conn = conn
	}

	c.rooms[auctionID] = room
	if err := c.conn.Send(newJoinFrame(auctionID)); err != nil {
		delete(c.rooms, auctionID)
		room.setState(outbound.RoomDisconnected)
		return nil, err
	}

	c.logger.Info().Str("auction_id", auctionID).Str("conn_id", c.conn.id).Msg("Joining auction room")
	return room, nil
}

// Connected reports whether a connection is open
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close leaves every room and drops the connection
func (c *Client) Close() {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	for _, r := range rooms {
		if err := r.Leave(); err != nil {
			c.logger.Warn().Err(err).Str("auction_id", r.auctionID).Msg("Failed to leave room on close")
		}
	}
}

func (c *Client) dial(ctx context.Context) (*connection, error) {
	header := http.Header{}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	wsConn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, &shared.AuthError{Err: err}
		}
		c.logger.Warn().Err(err).Str("url", c.url).Msg("Failed to dial live channel")
		return nil, &shared.NetworkError{Op: "dial " + c.url, Err: err}
	}

	conn := newConnection(connectionParams{
		Conn:        wsConn,
		MaxWorkers:  c.maxWorkers,
		MaxCapacity: c.maxCapacity,
		Dispatch:    c.dispatch,
		OnClosed:    c.connectionClosed,
		Logger:      c.logger,
	})
	conn.Start()

	c.logger.Info().Str("conn_id", conn.id).Msg("Live channel connected")
	return conn, nil
}

// send writes a frame on the current connection
func (c *Client) send(frame outgoing) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return shared.ErrChannelClosed
	}
	return conn.Send(frame)
}

// release removes a room after it has emitted leaveAuction. The connection
// closes with the last room.
func (c *Client) release(room *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.rooms[room.auctionID]; ok && current == room {
		delete(c.rooms, room.auctionID)
	}
	if len(c.rooms) == 0 && c.conn != nil {
		c.logger.Info().Str("conn_id", c.conn.id).Msg("Last room left, closing live channel")
		c.conn.Stop()
		c.conn = nil
	}
}

// dispatch runs on the worker pool. Events for rooms this process has not
// joined are dropped.
func (c *Client) dispatch(seq uint64, event outbound.Event) {
	c.mu.Lock()
	room, ok := c.rooms[event.AuctionID]
	c.mu.Unlock()

	if !ok {
		c.logger.Debug().Str("auction_id", event.AuctionID).Str("event", string(event.Type)).Msg("Dropping event for unjoined room")
		return
	}
	room.deliver(seq, event)
}

func (c *Client) connectionClosed(conn *connection) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	rooms := c.rooms
	c.rooms = make(map[string]*Room)
	c.mu.Unlock()

	for _, r := range rooms {
		r.disconnect()
	}
	c.logger.Warn().Str("conn_id", conn.id).Int("rooms", len(rooms)).Msg("Live channel dropped")
}

// connection owns one websocket. Only the sender goroutine writes to it and
// only the receiver goroutine reads from it.
type connection struct {
	id         string
	conn       *websocket.Conn
	sendChan   chan outgoing
	ctx        context.Context
	cancel     context.CancelFunc
	workerPool *pond.WorkerPool
	dispatch   func(uint64, outbound.Event)
	onClosed   func(*connection)
	seq        atomic.Uint64
	stopped    bool
	mu         sync.Mutex
	logger     zerolog.Logger
}

type connectionParams struct {
	Conn        *websocket.Conn
	MaxWorkers  int
	MaxCapacity int
	Dispatch    func(uint64, outbound.Event)
	OnClosed    func(*connection)
	Logger      zerolog.Logger
}

func newConnection(params connectionParams) *connection {
	ctx, cancel := context.WithCancel(context.Background())

	pool := pond.New(
		params.MaxWorkers,
		params.MaxCapacity,
		pond.Context(ctx),
		pond.Strategy(pond.Balanced()),
	)

	id := uuid.New().String()
	return &connection{
		id:         id,
		conn:       params.Conn,
		sendChan:   make(chan outgoing, 100),
		ctx:        ctx,
		cancel:     cancel,
		workerPool: pool,
		dispatch:   params.Dispatch,
		onClosed:   params.OnClosed,
		logger:     params.Logger.With().Str("conn_id", id).Logger(),
	}
}

func (c *connection) Start() {
	go c.messageSender()
	go c.messageReceiver()
}

// Stop flushes queued frames and closes the socket. Safe to call twice.
func (c *connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	c.cancel()
	c.workerPool.Stop()
}

// Send queues a frame for the sender goroutine
func (c *connection) Send(frame outgoing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return shared.ErrChannelClosed
	}
	select {
	case c.sendChan <- frame:
		return nil
	default:
		return fmt.Errorf("live channel send buffer is full")
	}
}

func (c *connection) messageSender() {
	defer c.conn.Close()

	for {
		select {
		case frame := <-c.sendChan:
			if err := c.conn.WriteJSON(frame); err != nil {
				c.logger.Error().Err(err).Msg("Failed to write frame")
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			c.flush()
			return
		}
	}
}

// flush drains frames queued before Stop so a final leaveAuction still
// reaches the server.
func (c *connection) flush() {
	for {
		select {
		case frame := <-c.sendChan:
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		default:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}

func (c *connection) messageReceiver() {
	defer func() {
		c.mu.Lock()
		stopped := c.stopped
		c.mu.Unlock()
		if !stopped {
			c.Stop()
			c.onClosed(c)
		}
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Live channel read error")
			} else {
				c.logger.Debug().Str("error", err.Error()).Msg("Live channel closed")
			}
			return
		}

		event, err := parseEvent(message)
		if err != nil {
			if !errors.Is(err, shared.ErrUnknownEvent) {
				c.logger.Warn().Err(err).Msg("Discarding malformed frame")
			}
			continue
		}

		seq := c.seq.Add(1)
		if !c.workerPool.TrySubmit(func() { c.dispatch(seq, event) }) {
			c.logger.Warn().Str("event", string(event.Type)).Str("auction_id", event.AuctionID).Msg("Dispatch pool full, dropping event")
		}
	}
}

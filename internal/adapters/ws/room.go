package ws

import (
	"errors"
	"sync"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"
)

var _ outbound.Room = (*Room)(nil)

// Room is one joined auction. Its state only moves forward:
// disconnected, connecting, joined, subscribed, leaving, disconnected.
type Room struct {
	client    *Client
	auctionID string
	handler   outbound.EventHandler

	mu          sync.Mutex
	state       outbound.RoomState
	activeUsers int
	presenceSeq uint64
	left        bool
}

func newRoom(c *Client, auctionID string, handler outbound.EventHandler) *Room {
	return &Room{
		client:    c,
		auctionID: auctionID,
		handler:   handler,
		state:     outbound.RoomDisconnected,
	}
}

func (r *Room) AuctionID() string {
	return r.auctionID
}

func (r *Room) State() outbound.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ActiveUsers is the latest presence count the server reported
func (r *Room) ActiveUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeUsers
}

func (r *Room) setState(state outbound.RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

// EmitBidPlaced sends a best-effort echo to other viewers of the room
func (r *Room) EmitBidPlaced(echo outbound.BidEcho) error {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	if state != outbound.RoomJoined && state != outbound.RoomSubscribed {
		return shared.ErrChannelClosed
	}
	return r.client.send(newBidPlacedFrame(r.auctionID, echo))
}

// Leave emits leaveAuction once. Events not yet dispatched are discarded.
func (r *Room) Leave() error {
	r.mu.Lock()
	if r.left {
		r.mu.Unlock()
		return nil
	}
	r.left = true
	wasLive := r.state != outbound.RoomDisconnected
	r.state = outbound.RoomLeaving
	r.mu.Unlock()

	var err error
	if wasLive {
		err = r.client.send(newLeaveFrame(r.auctionID))
	}
	r.client.release(r)
	r.setState(outbound.RoomDisconnected)

	r.client.logger.Info().Str("auction_id", r.auctionID).Msg("Left auction room")
	if errors.Is(err, shared.ErrChannelClosed) {
		return nil
	}
	return err
}

// deliver applies presence counts and hands the event to the handler unless
// the room has been left or the event belongs elsewhere.
func (r *Room) deliver(seq uint64, event outbound.Event) {
	if event.AuctionID != r.auctionID {
		return
	}

	r.mu.Lock()
	if r.left {
		r.mu.Unlock()
		return
	}
	if event.Type.IsPresence() && seq > r.presenceSeq {
		r.presenceSeq = seq
		r.activeUsers = event.ActiveUsers
	}
	ack := event.Type == outbound.EventAuctionJoined && r.state == outbound.RoomConnecting
	if ack {
		r.state = outbound.RoomJoined
	}
	r.mu.Unlock()

	if r.handler != nil {
		r.handler(event)
	}

	if ack {
		r.mu.Lock()
		if r.state == outbound.RoomJoined {
			r.state = outbound.RoomSubscribed
		}
		r.mu.Unlock()
	}
}

// disconnect marks the room dead after the connection dropped. A later
// Leave is a no-op on the wire.
func (r *Room) disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != outbound.RoomLeaving {
		r.state = outbound.RoomDisconnected
	}
}

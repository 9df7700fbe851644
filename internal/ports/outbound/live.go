package outbound

import (
	"context"
	"encoding/json"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
)

//go:generate mockgen -source=live.go -destination=mocks/live_mock.go -package=mocks

// EventType names a live-channel signal
type EventType string

const (
	// inbound
	EventAuctionJoined EventType = "auctionJoined"
	EventUserJoined    EventType = "userJoined"
	EventUserLeft      EventType = "userLeft"
	EventNewBid        EventType = "newBid"
	EventAuctionEnded  EventType = "auctionEnded"

	// outbound
	EventJoinAuction  EventType = "joinAuction"
	EventLeaveAuction EventType = "leaveAuction"
	EventBidPlaced    EventType = "bidPlaced"
)

// IsInvalidation reports whether the event means server state changed and
// the auction and its bids must be re-fetched.
func (t EventType) IsInvalidation() bool {
	return t == EventNewBid || t == EventAuctionEnded
}

// IsPresence reports whether the event only carries a viewer count
func (t EventType) IsPresence() bool {
	return t == EventAuctionJoined || t == EventUserJoined || t == EventUserLeft
}

// Event is one inbound live-channel message. Data is never applied as state.
type Event struct {
	Type        EventType       `json:"event"`
	AuctionID   string          `json:"auctionId"`
	ActiveUsers int             `json:"activeUsers,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// EventHandler receives events for one joined room
type EventHandler func(Event)

// RoomState is the per-room lifecycle
type RoomState string

const (
	RoomDisconnected RoomState = "disconnected"
	RoomConnecting   RoomState = "connecting"
	RoomJoined       RoomState = "joined"
	RoomSubscribed   RoomState = "subscribed"
	RoomLeaving      RoomState = "leaving"
)

// BidEcho is the best-effort bidPlaced payload
type BidEcho struct {
	Amount string       `json:"amount"`
	Bidder shared.Party `json:"bidder"`
}

// Room is a joined auction room
type Room interface {
	AuctionID() string
	State() RoomState
	ActiveUsers() int
	// EmitBidPlaced is an echo for other viewers, never authoritative
	EmitBidPlaced(echo BidEcho) error
	// Leave emits leaveAuction once and stops delivery to the handler
	Leave() error
}

// LiveChannel is the process-wide push connection
type LiveChannel interface {
	Join(ctx context.Context, auctionID string, handler EventHandler) (Room, error)
}

// StoredSession is the persisted part of the session
type StoredSession struct {
	Token string      `json:"token"`
	User  shared.User `json:"user"`
}

// SessionStore persists the session between process runs
type SessionStore interface {
	Load(ctx context.Context) (*StoredSession, error)
	Save(ctx context.Context, session StoredSession) error
	Clear(ctx context.Context) error
}

// SnapshotRecorder archives each reconciled view of an auction
type SnapshotRecorder interface {
	Record(ctx context.Context, a auction.Auction, bids []bid.Bid) error
}

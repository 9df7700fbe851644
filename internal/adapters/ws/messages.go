package ws

import (
	"encoding/json"
	"fmt"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"
)

// outgoing is a client to server frame
type outgoing struct {
	Event     outbound.EventType `json:"event"`
	AuctionID string             `json:"auctionId"`
	Data      any                `json:"data,omitempty"`
}

func newJoinFrame(auctionID string) outgoing {
	return outgoing{Event: outbound.EventJoinAuction, AuctionID: auctionID}
}

func newLeaveFrame(auctionID string) outgoing {
	return outgoing{Event: outbound.EventLeaveAuction, AuctionID: auctionID}
}

func newBidPlacedFrame(auctionID string, echo outbound.BidEcho) outgoing {
	return outgoing{Event: outbound.EventBidPlaced, AuctionID: auctionID, Data: echo}
}

// parseEvent decodes a server frame. Only the five inbound signals are
// accepted and every one of them must name its room.
func parseEvent(data []byte) (outbound.Event, error) {
	var event outbound.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return outbound.Event{}, fmt.Errorf("failed to parse server message: %w", err)
	}

	switch event.Type {
	case outbound.EventAuctionJoined, outbound.EventUserJoined, outbound.EventUserLeft,
		outbound.EventNewBid, outbound.EventAuctionEnded:
	default:
		return outbound.Event{}, fmt.Errorf("%w: %q", shared.ErrUnknownEvent, event.Type)
	}
	if event.AuctionID == "" {
		return outbound.Event{}, shared.ErrAuctionIDRequired
	}
	return event, nil
}

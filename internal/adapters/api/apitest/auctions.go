package apitest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const maxUploadBytes = 10 << 20

// AddAuction seeds an auction. Missing ids are assigned; a zero floor
// defaults to the base price.
func (s *Server) AddAuction(a auction.Auction) auction.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextID("auction")
	}
	if a.MinAuctionAmount.IsZero() {
		a.MinAuctionAmount = a.BasePrice
	}
	if a.Status == "" {
		a.Status = auction.StatusActive
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if acc, ok := s.accounts[a.Seller.ID]; ok && a.Seller.Name == "" {
		a.Seller.Name = acc.user.Name
	}

	stored := a
	s.auctions[a.ID] = &stored
	s.auctionOrder = append(s.auctionOrder, a.ID)
	return stored
}

// AddBid seeds a bid without the placement rules and recomputes the
// winning flag.
func (s *Server) AddBid(b bid.Bid) bid.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = s.nextID("bid")
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = s.now()
	}
	if acc, ok := s.accounts[b.Bidder.ID]; ok && b.Bidder.Name == "" {
		b.Bidder.Name = acc.user.Name
	}
	stored := b
	s.bids[b.AuctionID] = append(s.bids[b.AuctionID], &stored)
	s.settle(b.AuctionID)
	return stored
}

// Auction returns a copy of the stored auction
func (s *Server) Auction(id string) (auction.Auction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return auction.Auction{}, false
	}
	return *a, true
}

// Bids returns a copy of the stored bids in arrival order
func (s *Server) Bids(auctionID string) []bid.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bidsCopy(auctionID)
}

// EndAuction closes the auction, names the winner and pushes auctionEnded
// to the room.
func (s *Server) EndAuction(id string) {
	s.mu.Lock()
	a, ok := s.auctions[id]
	if ok {
		a.Status = auction.StatusCompleted
		if a.EndTime.After(s.now()) {
			a.EndTime = s.now()
		}
		for _, b := range s.bids[id] {
			if b.IsWinning {
				a.Winner = &shared.Party{ID: b.Bidder.ID, Name: b.Bidder.Name}
				a.PaymentStatus = auction.PaymentPending
			}
		}
	}
	s.mu.Unlock()

	if ok {
		s.live.broadcast(outbound.Event{Type: outbound.EventAuctionEnded, AuctionID: id}, "")
	}
}

// Broadcast pushes an arbitrary event into an auction room
func (s *Server) Broadcast(auctionID string, event outbound.Event) {
	if event.AuctionID == "" {
		event.AuctionID = auctionID
	}
	s.live.broadcast(event, "")
}

func (s *Server) bidsCopy(auctionID string) []bid.Bid {
	out := make([]bid.Bid, 0, len(s.bids[auctionID]))
	for _, b := range s.bids[auctionID] {
		out = append(out, *b)
	}
	return out
}

// settle recomputes the winning flag and current bid. The highest amount
// wins; on equal amounts the earlier bid keeps the lead.
func (s *Server) settle(auctionID string) {
	bids := s.bids[auctionID]
	var winner *bid.Bid
	for _, b := range bids {
		if winner == nil || b.Amount.GreaterThan(winner.Amount) {
			winner = b
		}
	}
	for _, b := range bids {
		b.IsWinning = b == winner
		b.IsOutbid = b != winner
	}

	if a, ok := s.auctions[auctionID]; ok && winner != nil {
		amount := winner.Amount
		a.CurrentBid = &amount
	}
}

// Auction handlers

func (s *Server) listAuctions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	status := auction.Status(q.Get("status"))
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []auction.Auction{}
	for _, id := range s.auctionOrder {
		a := s.auctions[id]
		if !a.IsApproved {
			continue
		}
		if category != "" && a.Category != category {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Title), search) {
			continue
		}
		out = append(out, *a)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) getAuction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) myAuctions(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []auction.Auction{}
	for _, id := range s.auctionOrder {
		if a := s.auctions[id]; a.Seller.ID == userID {
			out = append(out, *a)
		}
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) wonAuctions(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []auction.Auction{}
	for _, id := range s.auctionOrder {
		if a := s.auctions[id]; a.IsWinner(userID) {
			out = append(out, *a)
		}
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) createAuction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	basePrice, err := decimal.NewFromString(r.FormValue("basePrice"))
	if err != nil || !basePrice.IsPositive() {
		writeError(w, http.StatusBadRequest, "Base price must be a positive number")
		return
	}
	floor, err := decimal.NewFromString(r.FormValue("minAuctionAmount"))
	if err != nil {
		floor = basePrice
	}
	start, errStart := time.Parse(time.RFC3339, r.FormValue("startTime"))
	end, errEnd := time.Parse(time.RFC3339, r.FormValue("endTime"))
	if errStart != nil || errEnd != nil || !end.After(start) {
		writeError(w, http.StatusBadRequest, "Invalid auction schedule")
		return
	}
	if strings.TrimSpace(r.FormValue("title")) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	var images []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			images = append(images, "/uploads/"+fh.Filename)
		}
	}

	s.mu.Lock()
	acc := s.accounts[userID]
	if !acc.user.Permissions.CanCreateAuction {
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "You are not allowed to create auctions")
		return
	}
	a := &auction.Auction{
		ID:               s.nextID("auction"),
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		Category:         r.FormValue("category"),
		Subcategory:      r.FormValue("subcategory"),
		Condition:        r.FormValue("condition"),
		Images:           images,
		BasePrice:        basePrice,
		MinAuctionAmount: floor,
		StartTime:        start,
		EndTime:          end,
		Status:           auction.StatusPending,
		Seller:           shared.Party{ID: userID, Name: acc.user.Name},
		CreatedAt:        s.now(),
	}
	s.auctions[a.ID] = a
	s.auctionOrder = append(s.auctionOrder, a.ID)
	created := *a
	s.mu.Unlock()

	writeData(w, http.StatusCreated, created)
}

func (s *Server) updateAuction(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	var req inbound.UpdateAuctionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if a.Seller.ID != userID {
		writeError(w, http.StatusForbidden, "Not authorized to update this auction")
		return
	}
	if req.BasePrice != nil && len(s.bids[id]) > 0 {
		writeError(w, http.StatusBadRequest, "Cannot change the base price after bids were placed")
		return
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Category != nil {
		a.Category = *req.Category
	}
	if req.Condition != nil {
		a.Condition = *req.Condition
	}
	if req.BasePrice != nil {
		a.BasePrice = *req.BasePrice
		a.MinAuctionAmount = *req.BasePrice
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) deleteAuction(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if a.Seller.ID != userID && !s.accounts[userID].user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to delete this auction")
		return
	}
	if len(s.bids[id]) > 0 {
		writeError(w, http.StatusBadRequest, "Cannot delete an auction that has bids")
		return
	}

	delete(s.auctions, id)
	for i, existing := range s.auctionOrder {
		if existing == id {
			s.auctionOrder = append(s.auctionOrder[:i], s.auctionOrder[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Auction removed"})
}

func (s *Server) approveAuction(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	a.IsApproved = true
	if a.Status == auction.StatusPending {
		a.Status = auction.StatusActive
	}
	s.notifyLocked(a.Seller.ID, shared.NotificationAuctionApproved, "Auction approved", a.Title+" is now live", a.ID)
	writeData(w, http.StatusOK, a)
}

func (s *Server) pendingAuctions(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []auction.Auction{}
	for _, id := range s.auctionOrder {
		if a := s.auctions[id]; !a.IsApproved {
			out = append(out, *a)
		}
	}
	writeData(w, http.StatusOK, out)
}

// Bid handlers

func (s *Server) bidsForAuction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[id]; !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	writeData(w, http.StatusOK, s.bidsCopy(id))
}

func (s *Server) myBids(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []bid.Bid{}
	for _, id := range s.auctionOrder {
		for _, b := range s.bids[id] {
			if b.Bidder.ID == userID {
				out = append(out, *b)
			}
		}
	}
	writeData(w, http.StatusOK, out)
}

// checkBiddable applies the rules shared by place and update. The caller
// holds s.mu.
func (s *Server) checkBiddable(a *auction.Auction, userID string, amount decimal.Decimal) (int, string, bool) {
	switch {
	case !a.IsActive() || a.HasEnded(s.now()):
		return http.StatusBadRequest, "Auction has ended", false
	case a.IsSeller(userID):
		return http.StatusBadRequest, "You cannot bid on your own auction", false
	case amount.LessThan(a.MinAuctionAmount):
		return http.StatusBadRequest, fmt.Sprintf("Bid must be at least ₹%s", a.MinAuctionAmount.String()), false
	}
	return 0, "", true
}

func (s *Server) placeBid(w http.ResponseWriter, r *http.Request, userID string) {
	var req inbound.PlaceBidRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	a, ok := s.auctions[req.AuctionID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if status, msg, ok := s.checkBiddable(a, userID, req.Amount); !ok {
		s.mu.Unlock()
		writeError(w, status, msg)
		return
	}
	for _, existing := range s.bids[a.ID] {
		if existing.Bidder.ID == userID {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "You have already placed a bid on this auction. Update your existing bid instead")
			return
		}
	}

	placed := &bid.Bid{
		ID:        s.nextID("bid"),
		AuctionID: a.ID,
		Bidder:    shared.Party{ID: userID, Name: s.accounts[userID].user.Name},
		Amount:    req.Amount,
		Timestamp: s.now(),
	}
	s.bids[a.ID] = append(s.bids[a.ID], placed)
	s.settle(a.ID)
	s.notifyLocked(a.Seller.ID, shared.NotificationBidReceived, "New bid", "A bid was placed on "+a.Title, a.ID)
	result := *placed
	s.mu.Unlock()

	s.live.broadcast(outbound.Event{Type: outbound.EventNewBid, AuctionID: a.ID}, "")
	writeData(w, http.StatusCreated, result)
}

func (s *Server) updateBid(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	var req inbound.UpdateBidRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	var (
		target *bid.Bid
		index  int
	)
	for _, list := range s.bids {
		for i, b := range list {
			if b.ID == id {
				target, index = b, i
			}
		}
	}
	if target == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Bid not found")
		return
	}
	if target.Bidder.ID != userID {
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "Not authorized to update this bid")
		return
	}
	a := s.auctions[target.AuctionID]
	if status, msg, ok := s.checkBiddable(a, userID, req.Amount); !ok {
		s.mu.Unlock()
		writeError(w, status, msg)
		return
	}

	// An updated bid is a fresh offer, so it goes to the back of the line.
	list := s.bids[a.ID]
	list = append(list[:index], list[index+1:]...)
	target.Amount = req.Amount
	target.Timestamp = s.now()
	s.bids[a.ID] = append(list, target)
	s.settle(a.ID)
	result := *target
	s.mu.Unlock()

	s.live.broadcast(outbound.Event{Type: outbound.EventNewBid, AuctionID: a.ID}, "")
	writeData(w, http.StatusOK, result)
}

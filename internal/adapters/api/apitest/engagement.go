package apitest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const paymentSecret = "apitest-payment-secret"

// AddNotification seeds a notification for a user
func (s *Server) AddNotification(n shared.Notification) shared.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextID("notification")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications[n.User] = append(s.notifications[n.User], n)
	return n
}

// Notifications returns the stored notifications of a user
func (s *Server) Notifications(userID string) []shared.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shared.Notification(nil), s.notifications[userID]...)
}

// AddReview seeds a review
func (s *Server) AddReview(r shared.Review) shared.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.nextID("review")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	stored := r
	s.reviews = append(s.reviews, &stored)
	return stored
}

// SignPayment produces the signature a checkout widget would hand back for
// a successful payment.
func SignPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(paymentSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) notifyLocked(userID string, kind shared.NotificationType, title, message, auctionID string) {
	if userID == "" {
		return
	}
	s.notifications[userID] = append(s.notifications[userID], shared.Notification{
		ID:        s.nextID("notification"),
		User:      userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Auction:   auctionID,
		CreatedAt: s.now(),
	})
}

// Wishlist

func (s *Server) wishlistEntry(userID string, a *auction.Auction) shared.WishlistItem {
	current := a.BasePrice
	if a.CurrentBid != nil {
		current = *a.CurrentBid
	}
	return shared.WishlistItem{
		ID:   s.nextID("wish"),
		User: userID,
		Auction: shared.WishlistAuction{
			ID:         a.ID,
			Title:      a.Title,
			Images:     a.Images,
			CurrentBid: current,
			BasePrice:  a.BasePrice,
			EndTime:    a.EndTime,
			Status:     string(a.Status),
			Seller:     a.Seller,
		},
		AddedAt: s.now(),
	}
}

func (s *Server) wishlistIndex(userID, auctionID string) int {
	for i, item := range s.wishlists[userID] {
		if item.Auction.ID == auctionID {
			return i
		}
	}
	return -1
}

func (s *Server) getWishlist(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, append([]shared.WishlistItem{}, s.wishlists[userID]...))
}

func (s *Server) addToWishlist(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		AuctionID string `json:"auctionId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[req.AuctionID]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if s.wishlistIndex(userID, a.ID) >= 0 {
		writeError(w, http.StatusBadRequest, "Auction already in wishlist")
		return
	}
	item := s.wishlistEntry(userID, a)
	s.wishlists[userID] = append(s.wishlists[userID], item)
	writeData(w, http.StatusCreated, item)
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.wishlistIndex(userID, id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Auction not in wishlist")
		return
	}
	list := s.wishlists[userID]
	s.wishlists[userID] = append(list[:i], list[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Removed from wishlist"})
}

func (s *Server) checkWishlist(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "inWishlist": s.wishlistIndex(userID, id) >= 0})
}

func (s *Server) toggleWishlist(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if i := s.wishlistIndex(userID, id); i >= 0 {
		list := s.wishlists[userID]
		s.wishlists[userID] = append(list[:i], list[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "action": inbound.WishlistRemoved})
		return
	}
	item := s.wishlistEntry(userID, a)
	s.wishlists[userID] = append(s.wishlists[userID], item)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "action": inbound.WishlistAdded, "data": item})
}

// Notifications

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]shared.Notification{}, s.notifications[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	writeData(w, http.StatusOK, out)
}

func (s *Server) readNotification(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications[userID] {
		n := &s.notifications[userID][i]
		if n.ID == id {
			n.IsRead = true
			writeData(w, http.StatusOK, n)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Notification not found")
}

func (s *Server) readAllNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications[userID] {
		s.notifications[userID][i].IsRead = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "All notifications marked as read"})
}

// Reviews

func (s *Server) reviewsForUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []shared.Review{}
	for _, rv := range s.reviews {
		if rv.Reviewee == id {
			out = append(out, *rv)
		}
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) findReview(id string) (*shared.Review, int) {
	for i, rv := range s.reviews {
		if rv.ID == id {
			return rv, i
		}
	}
	return nil, -1
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request, userID string) {
	var req inbound.ReviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[req.AuctionID]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if !a.IsWinner(userID) {
		writeError(w, http.StatusForbidden, "Only the winner can review this auction")
		return
	}
	for _, rv := range s.reviews {
		if rv.Auction.ID == a.ID && rv.Reviewer.ID == userID {
			writeError(w, http.StatusBadRequest, "You have already reviewed this auction")
			return
		}
	}

	rv := &shared.Review{
		ID:         s.nextID("review"),
		Reviewer:   shared.Party{ID: userID, Name: s.accounts[userID].user.Name},
		Reviewee:   a.Seller.ID,
		Auction:    shared.AuctionRef{ID: a.ID, Title: a.Title},
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		IsVerified: true,
		CreatedAt:  s.now(),
	}
	s.reviews = append(s.reviews, rv)
	s.notifyLocked(a.Seller.ID, shared.NotificationReviewReceived, "New review", req.Title, a.ID)
	writeData(w, http.StatusCreated, rv)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	var req inbound.ReviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, _ := s.findReview(id)
	if rv == nil {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	if rv.Reviewer.ID != userID {
		writeError(w, http.StatusForbidden, "Not authorized to update this review")
		return
	}
	if req.Rating != 0 {
		rv.Rating = req.Rating
	}
	if req.Title != "" {
		rv.Title = req.Title
	}
	if req.Comment != "" {
		rv.Comment = req.Comment
	}
	writeData(w, http.StatusOK, rv)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, i := s.findReview(id)
	if rv == nil {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	if rv.Reviewer.ID != userID && !s.accounts[userID].user.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not authorized to delete this review")
		return
	}
	s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Review removed"})
}

func (s *Server) markHelpful(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	rv, _ := s.findReview(id)
	if rv == nil {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	rv.Helpful++
	writeData(w, http.StatusOK, map[string]int{"helpful": rv.Helpful})
}

// Payments

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, userID string) {
	var req inbound.CreateOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[req.AuctionID]
	if !ok {
		writeError(w, http.StatusNotFound, "Auction not found")
		return
	}
	if !a.IsWinner(userID) {
		writeError(w, http.StatusForbidden, "Only the winner can pay for this auction")
		return
	}
	if a.PaymentStatus == auction.PaymentPaid {
		writeError(w, http.StatusBadRequest, "Payment already completed")
		return
	}
	if !req.Amount.Equal(a.AmountDue()) {
		writeError(w, http.StatusBadRequest, "Payment amount does not match the winning bid")
		return
	}

	orderID := s.nextID("order_")
	s.orders[orderID] = a.ID
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order": shared.PaymentOrder{
			ID:       orderID,
			Amount:   req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
			Currency: "INR",
		},
	})
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request, userID string) {
	var req shared.PaymentConfirmation
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	auctionID, ok := s.orders[req.OrderID]
	if !ok || auctionID != req.AuctionID {
		writeError(w, http.StatusBadRequest, "Unknown payment order")
		return
	}
	expected := SignPayment(req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		writeError(w, http.StatusBadRequest, "Payment verification failed")
		return
	}

	a := s.auctions[auctionID]
	a.PaymentStatus = auction.PaymentPaid
	s.notifyLocked(userID, shared.NotificationPaymentSucceeded, "Payment successful", "Payment received for "+a.Title, a.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Payment verified successfully"})
}

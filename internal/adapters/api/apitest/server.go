// Package apitest is an in-memory stand-in for the auction server. It keeps
// the server-side rules (flat floor, one bid per user, winning flag) so view
// models can be exercised end to end over real HTTP and websocket.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type ctxKey struct{}

type account struct {
	user     shared.User
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake auction backend bound to an httptest server
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	secret        []byte
	accounts      map[string]*account
	auctions      map[string]*auction.Auction
	auctionOrder  []string
	bids          map[string][]*bid.Bid
	wishlists     map[string][]shared.WishlistItem
	notifications map[string][]shared.Notification
	reviews       []*shared.Review
	documents     map[string]shared.PendingVerification
	orders        map[string]string // orderID -> auctionID
	hits          map[string]int
	failures      map[string]failure
	seq           int

	live *liveHub
	now  func() time.Time
}

// New starts a fake server that is closed with the test
func New(t testing.TB) *Server {
	s := &Server{
		secret:        []byte("apitest-secret"),
		accounts:      make(map[string]*account),
		auctions:      make(map[string]*auction.Auction),
		bids:          make(map[string][]*bid.Bid),
		wishlists:     make(map[string][]shared.WishlistItem),
		notifications: make(map[string][]shared.Notification),
		documents:     make(map[string]shared.PendingVerification),
		orders:        make(map[string]string),
		hits:          make(map[string]int),
		failures:      make(map[string]failure),
		now:           time.Now,
	}
	s.live = newLiveHub(s)
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.live.closeAll()
		s.Server.Close()
	})
	return s
}

// WSURL is the live-channel endpoint
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.track)

	r.HandleFunc("/ws", s.live.serve)

	r.HandleFunc("/users/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/users/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.authed(s.me)).Methods(http.MethodGet)
	r.HandleFunc("/users/profile", s.authed(s.updateProfile)).Methods(http.MethodPut)
	r.HandleFunc("/users/upload-aadhaar", s.authed(s.uploadDocuments)).Methods(http.MethodPost)

	r.HandleFunc("/auctions", s.listAuctions).Methods(http.MethodGet)
	r.HandleFunc("/auctions", s.authed(s.createAuction)).Methods(http.MethodPost)
	r.HandleFunc("/auctions/myauctions", s.authed(s.myAuctions)).Methods(http.MethodGet)
	r.HandleFunc("/auctions/won", s.authed(s.wonAuctions)).Methods(http.MethodGet)
	r.HandleFunc("/auctions/{id}", s.getAuction).Methods(http.MethodGet)
	r.HandleFunc("/auctions/{id}", s.authed(s.updateAuction)).Methods(http.MethodPut)
	r.HandleFunc("/auctions/{id}", s.authed(s.deleteAuction)).Methods(http.MethodDelete)
	r.HandleFunc("/auctions/{id}/approve", s.admin(s.approveAuction)).Methods(http.MethodPut)

	r.HandleFunc("/bids/auction/{id}", s.bidsForAuction).Methods(http.MethodGet)
	r.HandleFunc("/bids/my-bids", s.authed(s.myBids)).Methods(http.MethodGet)
	r.HandleFunc("/bids", s.authed(s.placeBid)).Methods(http.MethodPost)
	r.HandleFunc("/bids/{id}", s.authed(s.updateBid)).Methods(http.MethodPut)

	r.HandleFunc("/wishlist", s.authed(s.getWishlist)).Methods(http.MethodGet)
	r.HandleFunc("/wishlist", s.authed(s.addToWishlist)).Methods(http.MethodPost)
	r.HandleFunc("/wishlist/check/{id}", s.authed(s.checkWishlist)).Methods(http.MethodGet)
	r.HandleFunc("/wishlist/toggle/{id}", s.authed(s.toggleWishlist)).Methods(http.MethodPut)
	r.HandleFunc("/wishlist/{id}", s.authed(s.removeFromWishlist)).Methods(http.MethodDelete)

	r.HandleFunc("/notifications", s.authed(s.getNotifications)).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read-all", s.authed(s.readAllNotifications)).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}/read", s.authed(s.readNotification)).Methods(http.MethodPut)

	r.HandleFunc("/reviews/user/{id}", s.reviewsForUser).Methods(http.MethodGet)
	r.HandleFunc("/reviews", s.authed(s.createReview)).Methods(http.MethodPost)
	r.HandleFunc("/reviews/{id}", s.authed(s.updateReview)).Methods(http.MethodPut)
	r.HandleFunc("/reviews/{id}", s.authed(s.deleteReview)).Methods(http.MethodDelete)
	r.HandleFunc("/reviews/{id}/helpful", s.authed(s.markHelpful)).Methods(http.MethodPut)

	r.HandleFunc("/payments/create-order", s.authed(s.createOrder)).Methods(http.MethodPost)
	r.HandleFunc("/payments/verify", s.authed(s.verifyPayment)).Methods(http.MethodPost)

	r.HandleFunc("/admin/pending-auctions", s.admin(s.pendingAuctions)).Methods(http.MethodGet)
	r.HandleFunc("/admin/users", s.admin(s.listUsers)).Methods(http.MethodGet)
	r.HandleFunc("/admin/users/{id}", s.admin(s.adminUpdateUser)).Methods(http.MethodPut)
	r.HandleFunc("/admin/users/{id}", s.admin(s.adminDeleteUser)).Methods(http.MethodDelete)
	r.HandleFunc("/admin/pending-verifications", s.admin(s.pendingVerifications)).Methods(http.MethodGet)
	r.HandleFunc("/admin/users/{id}/verify-aadhaar", s.admin(s.verifyDocuments)).Methods(http.MethodPut)

	return r
}

// Route keys are the method plus the mux path template, e.g.
// "GET /bids/auction/{id}".
func routeKey(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r)

		s.mu.Lock()
		s.hits[key]++
		f, failing := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if failing {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Hits counts requests served on a route key
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TotalHits counts every HTTP request served, websocket upgrades included
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// ResetHits zeroes the request counters
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}

// FailNext makes the next request on route answer with status and message
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// SetClock overrides the server's notion of now
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

// Auth

type claims struct {
	jwt.RegisteredClaims
}

// TokenFor mints a token for an existing user
func (s *Server) TokenFor(userID string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) userFromToken(raw string) (*account, bool) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[c.Subject]
	return acc, ok
}

func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, ok := s.userFromToken(bearer(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc.user.ID)), acc.user.ID)
	}
}

func (s *Server) admin(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, userID string) {
		s.mu.Lock()
		isAdmin := s.accounts[userID].user.IsAdmin()
		s.mu.Unlock()
		if !isAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, userID)
	})
}

// Responses

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func decode(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

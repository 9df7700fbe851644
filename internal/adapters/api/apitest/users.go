package apitest

import (
	"net/http"
	"strings"
	"time"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"

	"github.com/gorilla/mux"
)

const tokenTTL = 24 * time.Hour

// AddUser seeds an account. An empty id is assigned.
func (s *Server) AddUser(u shared.User, password string) shared.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.nextID("user")
	}
	if u.Role == "" {
		u.Role = shared.RoleUser
	}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// User returns the stored account
func (s *Server) User(id string) (shared.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return shared.User{}, false
	}
	return acc.user, true
}

func (s *Server) findByEmail(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, email) {
			return acc
		}
	}
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc := s.findByEmail(req.Email)
	s.mu.Unlock()

	// Bad credentials are a 400 so clients do not mistake them for an
	// expired session.
	if acc == nil || acc.password != req.Password {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	writeData(w, http.StatusOK, inbound.AuthResult{User: acc.user, Token: s.TokenFor(acc.user.ID, tokenTTL)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide name, email and password")
		return
	}

	s.mu.Lock()
	if s.findByEmail(req.Email) != nil {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	u := shared.User{
		ID:                 s.nextID("user"),
		Name:               req.Name,
		Email:              req.Email,
		Role:               shared.RoleUser,
		Permissions:        shared.Permissions{CanBid: true, CanCreateAuction: true},
		VerificationStatus: shared.VerificationPending,
	}
	s.accounts[u.ID] = &account{user: u, password: req.Password}
	s.mu.Unlock()

	writeData(w, http.StatusCreated, inbound.AuthResult{User: u, Token: s.TokenFor(u.ID, tokenTTL)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, s.accounts[userID].user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req inbound.ProfileUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &s.accounts[userID].user
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.Address != "" {
		u.Address = req.Address
	}
	if req.Avatar != "" {
		u.Avatar = req.Avatar
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	number := r.FormValue("aadhaarNumber")
	var images []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			images = append(images, "/uploads/"+fh.Filename)
		}
	}
	if number == "" || len(images) == 0 {
		writeError(w, http.StatusBadRequest, "Document number and images are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userID]
	acc.user.VerificationStatus = shared.VerificationPending
	s.documents[userID] = shared.PendingVerification{User: acc.user, DocumentNumber: number, Images: images}
	s.notifyLocked(userID, shared.NotificationDocsUploaded, "Documents uploaded", "Your documents are awaiting review", "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Documents uploaded"})
}

// Admin

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []shared.User{}
	for _, acc := range s.accounts {
		out = append(out, acc.user)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) adminUpdateUser(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]

	var req inbound.AdminUserUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if req.Name != "" {
		acc.user.Name = req.Name
	}
	if req.Email != "" {
		acc.user.Email = req.Email
	}
	if req.Role != "" {
		acc.user.Role = req.Role
	}
	if req.Permissions != nil {
		acc.user.Permissions = *req.Permissions
	}
	if req.VerificationStatus != "" {
		acc.user.VerificationStatus = req.VerificationStatus
	}
	writeData(w, http.StatusOK, acc.user)
}

func (s *Server) adminDeleteUser(w http.ResponseWriter, r *http.Request, adminID string) {
	id := mux.Vars(r)["id"]
	if id == adminID {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.accounts, id)
	delete(s.documents, id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User removed"})
}

func (s *Server) pendingVerifications(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []shared.PendingVerification{}
	for userID, doc := range s.documents {
		if acc, ok := s.accounts[userID]; ok && acc.user.VerificationStatus == shared.VerificationPending {
			doc.User = acc.user
			out = append(out, doc)
		}
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) verifyDocuments(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]

	var req inbound.VerifyDocumentsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != shared.VerificationVerified && req.Status != shared.VerificationRejected {
		writeError(w, http.StatusBadRequest, "Status must be verified or rejected")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if _, ok := s.documents[id]; !ok {
		writeError(w, http.StatusBadRequest, "User has not uploaded documents")
		return
	}
	acc.user.VerificationStatus = req.Status

	kind, title := shared.NotificationDocsVerified, "Documents verified"
	if req.Status == shared.VerificationRejected {
		kind, title = shared.NotificationDocsRejected, "Documents rejected"
	}
	s.notifyLocked(id, kind, title, req.Notes, "")
	writeData(w, http.StatusOK, acc.user)
}

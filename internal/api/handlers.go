package api

import (
	"encoding/json"
	"log"
	"net/http"

	"liveboard/internal/models"
)

// Handler handles Control API requests: login, logout, and document
// get/set. It drives the same core the WebSocket layer does.
type Handler struct {
	sessions SessionService  // Interface defined in this package!
	docs     DocumentService // Interface defined in this package!
}

// NewHandler wires the Control API to the core.
func NewHandler(sessions SessionService, docs DocumentService) *Handler {
	return &Handler{
		sessions: sessions,
		docs:     docs,
	}
}

type usernameRequest struct {
	Username string `json:"username"`
}

// Login adds the user to the presence set and upserts the durable user
// record. No duplex events fire - presence announcements happen on join.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.sessions.Login(r.Context(), req.Username); err != nil {
		log.Printf("Login failed for %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": req.Username,
	})
}

// Logout retracts the user's presence and force-closes any live
// connection bound to it. Logging out a user who was never online is a
// successful no-op.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.sessions.ForceLogout(r.Context(), req.Username); err != nil {
		log.Printf("Logout failed for %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out",
	})
}

// GetDocument returns the current shared document content.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.GetCurrent(r.Context())
	if err != nil {
		log.Printf("Get document failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	writeJSON(w, http.StatusOK, doc.Content)
}

// SetDocument replaces the current document content (last-writer-wins).
func (h *Handler) SetDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content models.DocumentContent `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.docs.Replace(r.Context(), req.Content); err != nil {
		log.Printf("Set document failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

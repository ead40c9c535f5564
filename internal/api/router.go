package api

import (
	"net/http"

	"liveboard/internal/collaboration"
	"liveboard/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes mounts the Control API and the WebSocket endpoint.
func SetupRoutes(h *Handler, ws *collaboration.WebSocketHandler) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	// Learning: Middleware runs in order - tracing first, then recovery, then CORS
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/login", h.Login).Methods("POST")
	api.HandleFunc("/logout", h.Logout).Methods("POST")
	api.HandleFunc("/document", h.GetDocument).Methods("GET")
	api.HandleFunc("/document", h.SetDocument).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Duplex channel
	r.HandleFunc("/ws", ws.HandleConnection)

	return r
}

package gateway

import "net/http"

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	op := s.requireOperator

	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Operator accounts
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", op(s.handleMe))

	// Catalogue
	mux.HandleFunc("GET /api/catalogue", s.handleCatalogueList)
	mux.HandleFunc("GET /api/catalogue/{id}", s.handleCatalogueGet)
	mux.HandleFunc("POST /api/catalogue", op(s.handleCatalogueCreate))
	mux.HandleFunc("PUT /api/catalogue/{id}", op(s.handleCatalogueUpdate))
	mux.HandleFunc("DELETE /api/catalogue/{id}", op(s.handleCatalogueDelete))
	mux.HandleFunc("POST /api/seed", op(s.handleSeed))

	// Contact inbox
	mux.HandleFunc("POST /api/contact", s.handleContactCreate)
	mux.HandleFunc("GET /api/messages", op(s.handleContactList))
	mux.HandleFunc("PUT /api/messages/{id}/read", op(s.handleContactRead))
	mux.HandleFunc("DELETE /api/messages/{id}", op(s.handleContactDelete))

	// Chat
	mux.HandleFunc("POST /api/chat/send", s.handleChatSend)
	mux.HandleFunc("GET /api/chat/history/{session_id}", s.handleChatHistory)
	mux.HandleFunc("GET /api/chat/conversations", op(s.handleConversations))
	mux.HandleFunc("GET /api/chat/conversations/{id}/messages", op(s.handleTranscript))
	mux.HandleFunc("POST /api/chat/conversations/{id}/reply", op(s.handleAdminReply))
	mux.HandleFunc("GET /api/chat/ws", s.handleFeed)

	mux.HandleFunc("GET /api/dashboard/stats", op(s.handleStats))

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Detail: "not found: " + r.URL.Path})
}

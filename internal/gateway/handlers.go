package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/techtribe/techtribe/internal/auth"
	"github.com/techtribe/techtribe/internal/chat"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/version"
)

// contactNotifyTimeout bounds the e-mail sent for a contact submission.
const contactNotifyTimeout = 20 * time.Second

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.Version})
}

// --- Operator accounts ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.deps.Auth.Register(r.Context(), req)
	if errors.Is(err, domain.ErrForbidden) {
		writeJSON(w, http.StatusForbidden, errorBody{Detail: "Admin açarı yanlışdır"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("login rate limited")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "too many failed attempts, try again later"})
		return
	}

	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.authLimiter.recordFailure(r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Email və ya şifrə yanlışdır"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	op, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, op)
}

// --- Catalogue ---

func (s *Server) handleCatalogueList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if text := strings.TrimSpace(q.Get("q")); text != "" {
		items, err := s.deps.Catalogue.Search(r.Context(), text, 100)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	f := domain.CatalogueFilter{Category: q.Get("category"), Limit: 100}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "featured must be a boolean"})
			return
		}
		f.FeaturedOnly = featured
	}

	items, err := s.deps.Catalogue.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCatalogueGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Catalogue.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErrorAs(w, r, err, "Məhsul tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// catalogueInput is the body of POST /api/catalogue.
type catalogueInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	Features         []string `json:"features"`
	Technologies     []string `json:"technologies"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	Images           []string `json:"images"`
	DemoURL          string   `json:"demo_url"`
	Category         string   `json:"category"`
	IsFeatured       bool     `json:"is_featured"`
}

func (s *Server) handleCatalogueCreate(w http.ResponseWriter, r *http.Request) {
	var in catalogueInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "title is required"})
		return
	}
	if in.Price < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "price must not be negative"})
		return
	}

	item, err := s.deps.Catalogue.Create(r.Context(), domain.CatalogueItem{
		Title:            in.Title,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Features:         in.Features,
		Technologies:     in.Technologies,
		Price:            in.Price,
		Currency:         in.Currency,
		Images:           in.Images,
		DemoURL:          in.DemoURL,
		Category:         in.Category,
		IsFeatured:       in.IsFeatured,
		IsActive:         true,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleCatalogueUpdate(w http.ResponseWriter, r *http.Request) {
	var u domain.CatalogueUpdate
	if !decode(w, r, &u) {
		return
	}
	if u.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Yeniləmə üçün məlumat yoxdur"})
		return
	}
	if u.Price != nil && *u.Price < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "price must not be negative"})
		return
	}

	item, err := s.deps.Catalogue.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeErrorAs(w, r, err, "Məhsul tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCatalogueDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Catalogue.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeErrorAs(w, r, err, "Məhsul tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Məhsul silindi"})
}

type seedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	inserted, total, err := s.deps.Catalogue.SeedIfEmpty(r.Context(), s.seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if inserted == 0 {
		writeJSON(w, http.StatusOK, seedResponse{Message: "Data artıq mövcuddur", Count: total})
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Message: "Demo data əlavə edildi", Count: inserted})
}

// --- Contact inbox ---

type contactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactResponse struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	EmailSent bool   `json:"email_sent"`
}

func (s *Server) handleContactCreate(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if !decode(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || strings.TrimSpace(in.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "name and message are required"})
		return
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "invalid email"})
		return
	}

	msg, err := s.deps.Contacts.Create(r.Context(), domain.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: in.Message,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.hooks != nil {
		s.hooks.EmitAsync(r.Context(), hooks.EventContactReceived, map[string]any{hooks.KeyContact: msg})
	}

	writeJSON(w, http.StatusOK, contactResponse{
		Message:   "Mesajınız qəbul edildi",
		ID:        msg.ID,
		EmailSent: s.notifyContact(r.Context(), msg),
	})
}

// notifyContact e-mails the submission. Failure never fails the request.
func (s *Server) notifyContact(ctx context.Context, msg domain.ContactMessage) bool {
	if s.notifier == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), contactNotifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("contact", msg.ID).Msg("contact e-mail failed")
		return false
	}
	return true
}

func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Contacts.List(r.Context(), 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleContactRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Contacts.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeErrorAs(w, r, err, "Mesaj tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Oxundu kimi işarələndi"})
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Contacts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeErrorAs(w, r, err, "Mesaj tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Mesaj silindi"})
}

// --- Chat ---

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.deps.Chat.Send(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := s.deps.Chat.History(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Chat.Conversations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Chat.Transcript(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type adminReplyRequest struct {
	Content string `json:"content"`
}

type adminReplyResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (s *Server) handleAdminReply(w http.ResponseWriter, r *http.Request) {
	var req adminReplyRequest
	if !decode(w, r, &req) {
		return
	}
	op, _ := auth.FromContext(r.Context())
	msg, err := s.deps.Chat.AdminReply(r.Context(), op.ID, r.PathValue("id"), req.Content)
	if err != nil {
		s.writeErrorAs(w, r, err, "Söhbət tapılmadı")
		return
	}
	writeJSON(w, http.StatusOK, adminReplyResponse{Message: "Cavab göndərildi", ID: msg.ID})
}

// --- Dashboard ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Package gateway is the TechTribe HTTP API: the public chat, catalogue and
// contact endpoints, the operator endpoints behind JWT auth, and the
// operator live feed over WebSocket.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/techtribe/techtribe/internal/auth"
	"github.com/techtribe/techtribe/internal/chat"
	"github.com/techtribe/techtribe/internal/config"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/logging"
)

var (
	ErrClientClosed = errors.New("client connection closed")
	// ErrSendQueueFull means a feed client stopped draining its events.
	ErrSendQueueFull = errors.New("client send queue full")
)

// CatalogueStore is the catalogue persistence the API needs.
type CatalogueStore interface {
	List(ctx context.Context, f domain.CatalogueFilter) ([]domain.CatalogueItem, error)
	Search(ctx context.Context, q string, limit int) ([]domain.CatalogueItem, error)
	Get(ctx context.Context, id string) (domain.CatalogueItem, error)
	Create(ctx context.Context, item domain.CatalogueItem) (domain.CatalogueItem, error)
	Update(ctx context.Context, id string, u domain.CatalogueUpdate) (domain.CatalogueItem, error)
	Delete(ctx context.Context, id string) error
	SeedIfEmpty(ctx context.Context, items []domain.CatalogueItem) (inserted, total int, err error)
}

// ContactStore is the contact inbox persistence the API needs.
type ContactStore interface {
	Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error)
	List(ctx context.Context, limit int) ([]domain.ContactMessage, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// StatsSource supplies the dashboard counters.
type StatsSource interface {
	Stats(ctx context.Context) (domain.DashboardStats, error)
}

// ContactNotifier delivers a contact message to the business inbox.
type ContactNotifier interface {
	Notify(ctx context.Context, c domain.ContactMessage) error
}

// Deps are the services the API is built on. All are required.
type Deps struct {
	Chat      *chat.Service
	Auth      *auth.Service
	Catalogue CatalogueStore
	Contacts  ContactStore
	Stats     StatsSource
}

// Server is the TechTribe HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	deps     Deps
	clients  *ClientRegistry

	hooks    *hooks.Manager
	notifier ContactNotifier
	ping     func(context.Context) error
	seed     []domain.CatalogueItem

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// authRateLimiter tracks failed auth attempts per IP to slow brute force.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000 // max tracked IPs to bound memory
)

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time), now: time.Now}
}

// run prunes stale entries every minute until ctx is done.
func (l *authRateLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *authRateLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-authRateWindow)
	for ip, times := range l.failures {
		filtered := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			delete(l.failures, ip)
		} else {
			l.failures[ip] = filtered
		}
	}
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-authRateWindow)
	recent := l.failures[host]
	filtered := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		delete(l.failures, host)
		return true
	}
	l.failures[host] = filtered
	return len(filtered) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := remoteHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Evict the oldest entry when the cap is reached
	if _, exists := l.failures[host]; !exists && len(l.failures) >= authRateMaxIPs {
		var oldestIP string
		var oldestTime time.Time
		for ip, times := range l.failures {
			if len(times) > 0 && (oldestIP == "" || times[0].Before(oldestTime)) {
				oldestIP = ip
				oldestTime = times[0]
			}
		}
		if oldestIP != "" {
			delete(l.failures, oldestIP)
		}
	}

	l.failures[host] = append(l.failures[host], l.now())
}

func remoteHost(remoteAddr string) string {
	host, _, _ := net.SplitHostPort(remoteAddr)
	if host == "" {
		host = remoteAddr
	}
	return host
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithHooks publishes server lifecycle events and feeds ledger events to
// connected operator dashboards.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithContactNotifier e-mails contact form submissions.
func WithContactNotifier(n ContactNotifier) ServerOption {
	return func(s *Server) {
		s.notifier = n
	}
}

// WithHealthCheck makes /api/health report degraded when check fails.
func WithHealthCheck(check func(context.Context) error) ServerOption {
	return func(s *Server) {
		s.ping = check
	}
}

// WithSeedData sets the items POST /api/seed inserts into an empty
// catalogue.
func WithSeedData(items []domain.CatalogueItem) ServerOption {
	return func(s *Server) {
		s.seed = items
	}
}

// New creates a server.
func New(cfg config.Config, log *logging.Logger, deps Deps, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		log:         log.Sub("gateway"),
		deps:        deps,
		clients:     NewClientRegistry(log.Sub("feed")),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Server.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.hooks != nil {
		s.subscribeFeed(s.hooks)
	}
	return s
}

// checkWebSocketOrigin allows requests without an Origin header and those
// whose Origin is configured.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the full HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// A chat send waits for the responder, so writes get its timeout
		// plus headroom for storage.
		WriteTimeout: s.cfg.Chat.ResponderTimeout() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Server.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Server.TLS.CertPath, s.cfg.Server.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Server.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled, operator tokens travel in cleartext")
	}

	s.startedAt = time.Now()
	go s.authLimiter.run(ctx)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Msg("server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{hooks.KeyAddr: ln.Addr().String()})
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventServerStop, nil)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

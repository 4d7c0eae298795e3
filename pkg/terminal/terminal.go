// Package terminal serves BASIC sessions to browser terminals over
// websockets.
package terminal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/agileandy/bbcbasic/pkg/auth"
	"github.com/agileandy/bbcbasic/pkg/configuration"
	"github.com/agileandy/bbcbasic/pkg/interpreter"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/shared"
	"github.com/agileandy/bbcbasic/pkg/shell"
	"github.com/agileandy/bbcbasic/pkg/store"
	tlsmanager "github.com/agileandy/bbcbasic/pkg/tls"
)

// Server routes account requests and websocket sessions.
type Server struct {
	store       *store.Store
	opts        interpreter.Options
	upgrader    websocket.Upgrader
	clients     *ClientManager
	maxSessions int
	mux         *http.ServeMux
}

// NewServer returns a server whose users and saved programs live in st.
func NewServer(st *store.Store, opts interpreter.Options) *Server {
	s := &Server{
		store:       st,
		opts:        opts,
		clients:     NewClientManager(configuration.GetInt("Server", "sessions_per_minute", 30)),
		maxSessions: configuration.GetInt("Server", "max_sessions", 100),
		mux:         http.NewServeMux(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}

	accounts := auth.NewHandlers(st)
	s.mux.HandleFunc("/login", accounts.HandleLogin)
	s.mux.HandleFunc("/register", accounts.HandleRegister)
	s.mux.HandleFunc("/ws", auth.RequireToken(s.HandleWebSocket))
	return s
}

// checkOrigin accepts clients without an Origin header, same-host
// browsers, and origins listed in [Server] allowed_origins ("*" allows
// any).
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range strings.Split(configuration.GetString("Server", "allowed_origins", ""), ",") {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || (allowed != "" && allowed == origin) {
			return true
		}
	}
	logger.ServerWarn("WebSocket request from disallowed origin rejected: %s", origin)
	return false
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int { return s.clients.Count() }

// ListenAndServe serves on addr until ctx is cancelled. With TLS enabled
// in tm it serves HTTPS, plus plain HTTP for ACME challenges or redirects
// when tm asks for it. tm may be nil.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tm *tlsmanager.TLSManager) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{srv}

	useTLS := tm != nil && tm.IsEnabled()
	if useTLS {
		srv.TLSConfig = tm.GetTLSConfig()
		if tm.NeedsHTTPServer() {
			plain := &http.Server{
				Addr:              tm.HTTPAddress(),
				Handler:           tm.GetHTTPHandler(addr),
				ReadHeaderTimeout: 10 * time.Second,
			}
			servers = append(servers, plain)
			go func() {
				logger.ServerInfo("HTTP redirect listener on %s", plain.Addr)
				if err := plain.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ServerError("HTTP listener failed: %v", err)
				}
			}()
		}
	}

	go func() {
		<-ctx.Done()
		s.clients.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, server := range servers {
			server.Shutdown(shutdownCtx)
		}
	}()

	var err error
	if useTLS {
		logger.ServerInfo("Listening on %s (TLS)", addr)
		err = srv.ListenAndServeTLS("", "")
	} else {
		logger.ServerInfo("Listening on %s", addr)
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// HandleWebSocket upgrades an authenticated request and starts a session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	ipAddress := clientIP(r)

	if err := s.clients.CheckRateLimit(ipAddress); err != nil {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}
	if s.clients.Count() >= s.maxSessions {
		logger.ServerWarn("Maximum sessions reached, rejecting %s", ipAddress)
		http.Error(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ServerError("WebSocket upgrade failed for %s: %v", ipAddress, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := s.newSession(conn, claims.Username, ipAddress, cancel)
	s.clients.AddSession(session)
	logger.ServerInfo("Session %s started for %s from %s", session.id, session.username, ipAddress)

	session.sendMessage(shared.Message{Type: shared.MessageTypeSession, SessionID: session.id})

	go session.writePump()
	go session.readPump()
	go session.runShell(ctx)
}

func (s *Server) newSession(conn *websocket.Conn, username, ipAddress string, cancel context.CancelFunc) *Session {
	session := &Session{
		id:        uuid.NewString(),
		username:  username,
		ipAddress: ipAddress,
		conn:      conn,
		manager:   s.clients,
		send:      make(chan shared.Message, sendBuffer),
		lines:     make(chan string, 16),
		escape:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	lib := shell.NewStoreLibrary(s.store, username)
	session.shell = shell.New(sessionWriter{session}, session, lib, s.opts)
	return session
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}

package devserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
)

// Reserved endpoints.
const (
	WebSocketPath = "/__kiln/ws"
	ScriptPath    = "/__kiln/livereload.js"
	StatePath     = "/__kiln/state"
)

//go:embed assets/livereload.js
var liveReloadJS []byte

const shutdownTimeout = 5 * time.Second

// Config holds the configuration for a Server.
type Config struct {
	Host   string
	Port   int
	Root   string // directory served, usually dest
	Logger *slog.Logger
}

// Server serves Config.Root and the live-reload endpoints.
type Server struct {
	config     Config
	hub        *Hub
	components []introspection.Introspectable

	mu      sync.RWMutex
	addr    string
	running bool
	pages   int
}

// New creates a Server. components are reported by the state endpoint.
func New(config Config, hub *Hub, components ...introspection.Introspectable) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if hub == nil {
		hub = NewHub(config.Logger)
	}
	return &Server{config: config, hub: hub, components: components}
}

// Hub returns the server's live-reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the listening address once the server is running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, s.hub)
	mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		_, _ = w.Write(liveReloadJS)
	})
	mux.HandleFunc(StatePath, s.serveState)
	mux.Handle("/", s.serveFiles())
	return mux
}

// ListenAndServe listens on Config.Host:Config.Port and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.config.Logger.Info("serving", "url", "http://"+s.Addr(), "root", s.config.Root)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Websocket connections are hijacked and not closed by Shutdown.
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// serveFiles serves Root, injecting the live-reload script into HTML pages.
func (s *Server) serveFiles() http.Handler {
	files := http.FileServer(http.Dir(s.config.Root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if path.Ext(name) != ".html" {
			files.ServeHTTP(w, r)
			return
		}

		data, err := os.ReadFile(filepath.Join(s.config.Root, filepath.FromSlash(name)))
		if err != nil {
			files.ServeHTTP(w, r)
			return
		}

		s.mu.Lock()
		s.pages++
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(InjectScript(data))
	})
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	state := map[string]any{
		s.ComponentType(): s.State(),
	}
	for _, c := range s.components {
		key := fmt.Sprintf("%T", c)
		if comp, ok := c.(introspection.Component); ok {
			key = comp.ComponentType()
		}
		state[key] = c.State()
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		s.config.Logger.Error("failed to encode state", "error", err)
	}
}

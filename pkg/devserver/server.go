// Package devserver is the development host: it serves plugin modules from
// an in-memory module graph, runs plugin middleware and pushes reload
// notifications to connected pages over a websocket.
package devserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

const (
	// ClientPath serves the reload client script
	ClientPath = "/@svgiconfont/client.js"
	// WebSocketPath is the reload channel
	WebSocketPath = "/@svgiconfont/ws"
	// HealthPath answers liveness checks
	HealthPath = "/@svgiconfont/health"

	shutdownTimeout = 5 * time.Second
)

//go:embed static/client.js
var clientScript []byte

//go:embed static/preview.html
var staticFS embed.FS

var previewTemplate = template.Must(template.ParseFS(staticFS, "static/preview.html"))

// IconLister is implemented by plugins that can list their icon classes
type IconLister interface {
	IconClasses() []string
}

// Options configures a Server
type Options struct {
	Server config.ServerConfig
	// Entries are the module specifiers linked from the preview page
	Entries []string
	Title   string
}

// Server is a development host for a set of plugins
type Server struct {
	opts    Options
	plugins []host.Plugin
	logger  logging.Logger

	graph  *moduleGraph
	hub    *hub
	loads  singleflight.Group
	static http.Handler

	// holds *chain
	handler     atomic.Value
	mu          sync.Mutex
	middlewares []host.Middleware
	closers     []func() error
	closed      bool
}

// New creates a server and lets every plugin configure it
func New(opts Options, logger logging.Logger, plugins ...host.Plugin) (*Server, error) {
	if opts.Title == "" {
		opts.Title = "Icons"
	}
	s := &Server{
		opts:    opts,
		plugins: plugins,
		logger:  logger.WithModule("devserver"),
		graph:   newModuleGraph(),
	}
	s.hub = newHub(s.logger)
	if opts.Server.Root != "" {
		s.static = newStaticHandler(opts.Server.Root)
	}
	s.rebuild()

	for _, p := range plugins {
		c, ok := p.(host.ServerConfigurer)
		if !ok {
			continue
		}
		if err := c.ConfigureServer(s); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("configure server for plugin %s: %w", p.Name(), err)
		}
	}
	return s, nil
}

// ModuleGraph implements host.DevServer
func (s *Server) ModuleGraph() host.ModuleGraph {
	return s.graph
}

// FullReload implements host.DevServer
func (s *Server) FullReload() {
	n := s.hub.broadcast(Message{Type: MessageFullReload})
	s.logger.Info("Page reload", "clients", n)
}

// Use implements host.DevServer. Middleware registered first runs first.
func (s *Server) Use(mw host.Middleware) {
	s.mu.Lock()
	s.middlewares = append(s.middlewares, mw)
	s.mu.Unlock()
	s.rebuild()
}

// OnClose implements host.DevServer. Hooks run in reverse registration
// order.
func (s *Server) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

func (s *Server) rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.HandleFunc(ClientPath, s.handleClient)
	mux.Handle(WebSocketPath, s.hub.handler())
	mux.HandleFunc("/", s.handleRoot)

	var h http.Handler = mux
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	s.handler.Store(&chain{h})
}

// chain wraps the composed handler so atomic.Value always stores one type
type chain struct {
	http.Handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.Load().(*chain).ServeHTTP(w, r)
}

// Run listens on the configured address until ctx is done, then shuts the
// server down and closes it.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Server.Addr())
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Development server ready", "url", "http://"+ln.Addr().String()+"/")

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		} else {
			errChan <- nil
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down development server")
		s.hub.closeAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown error", "error", err)
		}
		serveErr = <-errChan
	case serveErr = <-errChan:
	}

	return errors.Join(serveErr, s.Close())
}

// Close disconnects reload clients and runs the close hooks. Calling it
// again does nothing.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	s.hub.closeAll()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clientScript)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/")
	if resolved, ok := s.resolve(id); ok {
		s.serveModule(w, r, id, resolved)
		return
	}

	switch {
	case r.URL.Path == "/" && !s.hasIndex():
		s.handlePreview(w, r)
	case s.static != nil:
		s.static.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// hasIndex reports whether the static root provides its own index page
func (s *Server) hasIndex() bool {
	if s.opts.Server.Root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.opts.Server.Root, "index.html"))
	return err == nil && !info.IsDir()
}

// resolve asks each plugin in order to claim id
func (s *Server) resolve(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, p := range s.plugins {
		if r, ok := p.(host.Resolver); ok {
			if resolved, ok := r.ResolveID(id); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// module returns the code for a resolved id from the graph, loading it
// through the plugins on a miss. Concurrent misses share one load.
func (s *Server) module(ctx context.Context, resolved string) (string, error) {
	if code, _, ok := s.graph.get(resolved); ok {
		return code, nil
	}

	v, err, _ := s.loads.Do(resolved, func() (interface{}, error) {
		code, version, ok := s.graph.get(resolved)
		if ok {
			return code, nil
		}
		for _, p := range s.plugins {
			l, ok := p.(host.Loader)
			if !ok {
				continue
			}
			code, owned, err := l.Load(ctx, resolved)
			if err != nil {
				return "", err
			}
			if owned {
				s.graph.store(resolved, version, code)
				return code, nil
			}
		}
		return "", fmt.Errorf("no plugin loads %q", resolved)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Server) serveModule(w http.ResponseWriter, r *http.Request, id, resolved string) {
	code, err := s.module(r.Context(), resolved)
	if err != nil {
		s.logger.Error("Failed to load module", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	contentType := "text/javascript; charset=utf-8"
	if path.Ext(id) == ".css" {
		contentType = "text/css; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(code))
}

type previewData struct {
	Title       string
	Stylesheets []string
	Classes     []string
	ClientPath  string
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data := previewData{Title: s.opts.Title, ClientPath: ClientPath}

	for _, entry := range s.opts.Entries {
		resolved, ok := s.resolve(entry)
		if !ok {
			continue
		}
		// loading the stylesheet generates the font the classes come from
		if _, err := s.module(r.Context(), resolved); err != nil {
			s.logger.Warn("Failed to load module for preview", "id", entry, "error", err)
			continue
		}
		if path.Ext(entry) == ".css" {
			data.Stylesheets = append(data.Stylesheets, entry)
		}
	}
	for _, p := range s.plugins {
		if l, ok := p.(IconLister); ok {
			data.Classes = append(data.Classes, l.IconClasses()...)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := previewTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to render preview", "error", err)
	}
}

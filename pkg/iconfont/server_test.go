package iconfont

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ideamans/svgiconfont/pkg/fontgen"
	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

const (
	testTimeout = 5 * time.Second
	testTick    = 10 * time.Millisecond
)

// fakeServer records what the plugin does to its host
type fakeServer struct {
	mu          sync.Mutex
	cached      map[string]bool
	invalidated []string
	reloads     int
	middlewares []host.Middleware
	closers     []func() error
}

func newFakeServer() *fakeServer {
	return &fakeServer{cached: map[string]bool{}}
}

func (s *fakeServer) ModuleGraph() host.ModuleGraph { return s }

func (s *fakeServer) Invalidate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, id)
	held := s.cached[id]
	delete(s.cached, id)
	return held
}

func (s *fakeServer) FullReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
}

func (s *fakeServer) Use(mw host.Middleware) { s.middlewares = append(s.middlewares, mw) }

func (s *fakeServer) OnClose(fn func() error) { s.closers = append(s.closers, fn) }

func (s *fakeServer) cache(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached[id] = true
}

func (s *fakeServer) counts() (invalidated, reloads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invalidated), s.reloads
}

func (s *fakeServer) close(t *testing.T) {
	t.Helper()
	for _, fn := range s.closers {
		require.NoError(t, fn())
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestMiddlewareBeforeGeneration(t *testing.T) {
	p := New(fontOptions(t), &stubConverter{}, logging.NewTestLogger())
	h := p.Middleware(notFoundHandler())

	for _, f := range placeholder.Formats {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, f.URL(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, f)
	}
}

func TestMiddlewareServesFonts(t *testing.T) {
	p := New(fontOptions(t, "home"), &stubConverter{}, logging.NewTestLogger())
	_, err := p.Regenerate(context.Background())
	require.NoError(t, err)
	h := p.Middleware(notFoundHandler())

	tests := []struct {
		target      string
		contentType string
		body        []byte
	}{
		{"/" + placeholder.Token + ".ttf", "font/ttf", []byte{'t', 1}},
		{"/" + placeholder.Token + ".woff", "font/woff", []byte{'w', 1}},
		{"/" + placeholder.Token + ".woff2", "font/woff2", []byte{'2', 1}},
		{"/" + placeholder.Token + ".woff2?v=123", "font/woff2", []byte{'2', 1}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
			assert.Equal(t, tt.body, rec.Body.Bytes())
		})
	}
}

func TestMiddlewareHead(t *testing.T) {
	p := New(fontOptions(t, "home"), &stubConverter{}, logging.NewTestLogger())
	_, err := p.Regenerate(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.Middleware(notFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, placeholder.FormatTTF.URL(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.Bytes())
}

func TestMiddlewareServesEmptyFont(t *testing.T) {
	p := New(fontOptions(t), &stubConverter{}, logging.NewTestLogger())
	p.state.Store(&State{TTF: []byte{}, WOFF: []byte{}, WOFF2: []byte{}})
	h := p.Middleware(notFoundHandler())

	for _, f := range placeholder.Formats {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, f.URL(), nil))
		assert.Equal(t, http.StatusOK, rec.Code, f)
		assert.Equal(t, "0", rec.Header().Get("Content-Length"), f)
		assert.Empty(t, rec.Body.Bytes(), f)
	}
}

func TestMiddlewarePassesThrough(t *testing.T) {
	p := New(fontOptions(t, "home"), &stubConverter{}, logging.NewTestLogger())
	_, err := p.Regenerate(context.Background())
	require.NoError(t, err)
	h := p.Middleware(notFoundHandler())

	for _, target := range []string{
		"/",
		"/iconfont.ttf",
		"/" + placeholder.Token + ".otf",
		"/" + placeholder.Token + ".ttf/x",
		"/assets/" + placeholder.Token + ".ttf",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, target)
	}
}

func TestConfigureServer(t *testing.T) {
	fo := fontOptions(t, "home")
	p := New(fo, &stubConverter{}, logging.NewTestLogger(), WithDebounce(20*time.Millisecond))
	srv := newFakeServer()

	require.NoError(t, p.ConfigureServer(srv))
	require.Len(t, srv.middlewares, 1)
	require.Len(t, srv.closers, 1)
	defer srv.close(t)

	// the module is cached, as after the browser requested it
	_, _, err := p.Load(context.Background(), ResolvedVirtualModuleID)
	require.NoError(t, err)
	srv.cache(ResolvedVirtualModuleID)

	require.NoError(t, os.WriteFile(filepath.Join(fo.Include, "star.svg"), []byte(iconSVG), 0644))

	require.Eventually(t, func() bool {
		_, reloads := srv.counts()
		return reloads == 1
	}, testTimeout, testTick)
	assert.Equal(t, []string{"home", "star"}, p.State().Icons)

	// the module is no longer cached: regenerate without a reload
	require.NoError(t, os.Remove(filepath.Join(fo.Include, "home.svg")))
	require.Eventually(t, func() bool {
		return len(p.State().Icons) == 1
	}, testTimeout, testTick)
	assert.Equal(t, []string{"star"}, p.State().Icons)
	_, reloads := srv.counts()
	assert.Equal(t, 1, reloads)
}

func TestConfigureServerLateDirectory(t *testing.T) {
	fo := fontOptions(t)
	fo.Include = filepath.Join(fo.Include, "icons")
	logger := logging.NewRecordingLogger()
	p := New(fo, &stubConverter{}, logger, WithDebounce(20*time.Millisecond))
	srv := newFakeServer()

	require.NoError(t, p.ConfigureServer(srv))
	defer srv.close(t)

	warnings := logger.Entries(logging.LevelWarn)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "does not exist")

	require.NoError(t, os.Mkdir(fo.Include, 0755))
	// wait for the directory to be attached before adding an icon
	require.Eventually(t, func() bool {
		invalidated, _ := srv.counts()
		return invalidated >= 1
	}, testTimeout, testTick)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(fo.Include, "home.svg"), []byte(iconSVG), 0644)
		st := p.State()
		return st != nil && len(st.Icons) == 1
	}, testTimeout, 100*time.Millisecond)
}

func TestConfigureServerRegenerationFailure(t *testing.T) {
	fo := fontOptions(t, "home")
	conv := &stubConverter{}
	logger := logging.NewRecordingLogger()
	p := New(fo, conv, logger, WithDebounce(20*time.Millisecond))
	srv := newFakeServer()

	first, err := p.Regenerate(context.Background())
	require.NoError(t, err)
	srv.cache(ResolvedVirtualModuleID)

	require.NoError(t, p.ConfigureServer(srv))
	defer srv.close(t)

	conv.fail.Store(true)
	require.NoError(t, os.WriteFile(filepath.Join(fo.Include, "star.svg"), []byte(iconSVG), 0644))

	require.Eventually(t, func() bool {
		return len(logger.Entries(logging.LevelError)) > 0
	}, testTimeout, testTick)
	invalidated, reloads := srv.counts()
	assert.Zero(t, invalidated)
	assert.Zero(t, reloads)
	assert.Same(t, first, p.State())
}

func TestCloseWaitsForRegeneration(t *testing.T) {
	defer goleak.VerifyNone(t)

	fo := fontOptions(t)
	started := make(chan struct{}, 1)
	var finished atomic.Bool
	// the conversion ignores cancellation, so only waiting can observe its end
	conv := fontgen.ConverterFunc(func(_ context.Context, _ []source.Icon, opts fontgen.Options) (*fontgen.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(300 * time.Millisecond)
		finished.Store(true)
		return stubResult(opts.Name, 1), nil
	})
	p := New(fo, conv, logging.NewTestLogger(), WithDebounce(20*time.Millisecond))
	srv := newFakeServer()
	require.NoError(t, p.ConfigureServer(srv))

	require.NoError(t, os.WriteFile(filepath.Join(fo.Include, "a.svg"), []byte(iconSVG), 0644))
	select {
	case <-started:
	case <-time.After(testTimeout):
		srv.close(t)
		t.Fatal("regeneration did not start")
	}

	srv.close(t)
	assert.True(t, finished.Load(), "close returned while a regeneration was running")
}

package devserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

// modulePlugin owns one virtual module and counts its loads
type modulePlugin struct {
	id    string
	code  string
	err   error
	loads atomic.Int32
	delay time.Duration
}

func (p *modulePlugin) Name() string { return "module" }

func (p *modulePlugin) ResolveID(id string) (string, bool) {
	if id == p.id {
		return "\x00" + id, true
	}
	return "", false
}

func (p *modulePlugin) Load(_ context.Context, id string) (string, bool, error) {
	if id != "\x00"+p.id {
		return "", false, nil
	}
	p.loads.Add(1)
	time.Sleep(p.delay)
	if p.err != nil {
		return "", true, p.err
	}
	return p.code, true, nil
}

// hookPlugin records the server it was configured with
type hookPlugin struct {
	err    error
	server host.DevServer
	closed *[]string
	name   string
}

func (p *hookPlugin) Name() string { return p.name }

func (p *hookPlugin) ConfigureServer(srv host.DevServer) error {
	if p.err != nil {
		return p.err
	}
	p.server = srv
	srv.OnClose(func() error {
		*p.closed = append(*p.closed, p.name)
		return nil
	})
	return nil
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServeModule(t *testing.T) {
	p := &modulePlugin{id: "virtual:test.css", code: ".a{}"}
	s, err := New(Options{}, logging.NewTestLogger(), p)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := get(t, s, "/virtual:test.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, ".a{}", rec.Body.String())

	// cached until invalidated
	get(t, s, "/virtual:test.css")
	assert.EqualValues(t, 1, p.loads.Load())
	assert.Equal(t, []string{"\x00virtual:test.css"}, s.graph.ids())

	assert.True(t, s.ModuleGraph().Invalidate("\x00virtual:test.css"))
	assert.False(t, s.ModuleGraph().Invalidate("\x00virtual:test.css"))

	get(t, s, "/virtual:test.css")
	assert.EqualValues(t, 2, p.loads.Load())
}

func TestServeModuleConcurrentLoads(t *testing.T) {
	p := &modulePlugin{id: "virtual:test.css", code: ".a{}", delay: 50 * time.Millisecond}
	s, err := New(Options{}, logging.NewTestLogger(), p)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := get(t, s, "/virtual:test.css")
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, p.loads.Load())
}

func TestServeModuleError(t *testing.T) {
	p := &modulePlugin{id: "virtual:test.js", err: errors.New("broken")}
	s, err := New(Options{}, logging.NewTestLogger(), p)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := get(t, s, "/virtual:test.js")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "broken")
	assert.Empty(t, s.graph.ids())
}

func TestInvalidateDuringLoad(t *testing.T) {
	g := newModuleGraph()
	_, version, ok := g.get("a")
	require.False(t, ok)

	g.Invalidate("a")
	assert.False(t, g.store("a", version, "stale"))
	_, _, ok = g.get("a")
	assert.False(t, ok)

	_, version, _ = g.get("a")
	assert.True(t, g.store("a", version, "fresh"))
	code, _, ok := g.get("a")
	assert.True(t, ok)
	assert.Equal(t, "fresh", code)
}

func TestMiddlewareOrder(t *testing.T) {
	s, err := New(Options{}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var order []string
	tag := func(name string) host.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	s.Use(tag("first"))
	s.Use(tag("second"))

	rec := get(t, s, HealthPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestConfigureAndClose(t *testing.T) {
	var closed []string
	a := &hookPlugin{name: "a", closed: &closed}
	b := &hookPlugin{name: "b", closed: &closed}

	s, err := New(Options{}, logging.NewTestLogger(), a, b)
	require.NoError(t, err)
	assert.Same(t, s, a.server)
	assert.Same(t, s, b.server)

	require.NoError(t, s.Close())
	assert.Equal(t, []string{"b", "a"}, closed)

	require.NoError(t, s.Close())
	assert.Len(t, closed, 2)
}

func TestConfigureFailure(t *testing.T) {
	var closed []string
	a := &hookPlugin{name: "a", closed: &closed}
	b := &hookPlugin{name: "b", closed: &closed, err: errors.New("nope")}

	_, err := New(Options{}, logging.NewTestLogger(), a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin b")
	assert.Equal(t, []string{"a"}, closed)
}

func TestClientScript(t *testing.T) {
	s, err := New(Options{}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := get(t, s, ClientPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), WebSocketPath)
}

func TestPreviewPage(t *testing.T) {
	s, err := New(Options{Title: "My icons"}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>My icons</title>")
	assert.Contains(t, rec.Body.String(), "No icons yet.")
	assert.Contains(t, rec.Body.String(), ClientPath)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/missing.js").Code)
}

func TestStaticRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body><p>hi</p></body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.css"), []byte("p{}"), 0644))

	s, err := New(Options{Server: config.ServerConfig{Root: root}}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `<html><body><p>hi</p><script type="module" src="/@svgiconfont/client.js"></script></body></html>`, rec.Body.String())

	rec = get(t, s, "/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p{}", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope.html").Code)
}

func TestStaticRootWithoutIndex(t *testing.T) {
	s, err := New(Options{Server: config.ServerConfig{Root: t.TempDir()}}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Contains(t, get(t, s, "/").Body.String(), "No icons yet.")
}

func TestInjectClient(t *testing.T) {
	assert.Equal(t, "<p>x</p>\n"+string(clientTag), string(injectClient([]byte("<p>x</p>"))))
	assert.Equal(t, "<BODY>"+string(clientTag)+"</BODY>", string(injectClient([]byte("<BODY></BODY>"))))
}

func dialReload(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + WebSocketPath
	conn, err := websocket.Dial(wsURL, "", serverURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Equal(t, MessageConnected, receive(t, conn).Type)
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	return msg
}

func TestFullReload(t *testing.T) {
	s, err := New(Options{}, logging.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ts := httptest.NewServer(s)
	defer ts.Close()

	first := dialReload(t, ts.URL)
	second := dialReload(t, ts.URL)
	require.Eventually(t, func() bool { return s.hub.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	s.FullReload()
	assert.Equal(t, MessageFullReload, receive(t, first).Type)
	assert.Equal(t, MessageFullReload, receive(t, second).Type)

	// a disconnected client is dropped
	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestServe(t *testing.T) {
	var closed []string
	s, err := New(Options{}, logging.NewTestLogger(), &hookPlugin{name: "a", closed: &closed})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	serverURL := "http://" + ln.Addr().String()
	resp, err := http.Get(serverURL + HealthPath)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	conn := dialReload(t, serverURL)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"a"}, closed)

	// the reload connection was closed by the shutdown
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	assert.Error(t, websocket.JSON.Receive(conn, &msg))
}

package iconfont

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/ideamans/svgiconfont/pkg/host"
	"github.com/ideamans/svgiconfont/pkg/placeholder"
	"github.com/ideamans/svgiconfont/pkg/shared/filewatcher"
)

// ConfigureServer watches the icon directory and registers the font
// middleware. Any add, unlink or change regenerates the font, drops the
// cached virtual module and reloads connected pages.
func (p *Plugin) ConfigureServer(srv host.DevServer) error {
	if _, err := os.Stat(p.opts.Include); err != nil {
		p.logger.Warn("Icon directory does not exist yet, watching for it", "path", p.opts.Include)
	}

	w, err := filewatcher.NewDirWatcher(p.opts.Include, p.debounce)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.AddListener(filewatcher.ChangeListenerFunc(func(event filewatcher.ChangeEvent) {
		p.onIconChange(ctx, srv, event)
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Start(ctx); err != nil && !errors.Is(err, filewatcher.ErrClosed) && !errors.Is(err, context.Canceled) {
			p.logger.Error("Icon watcher stopped", "error", err)
		}
	}()

	srv.Use(p.Middleware)
	srv.OnClose(func() error {
		// cancel first so in-flight passes stop early; Close waits for them
		cancel()
		err := w.Close()
		wg.Wait()
		return err
	})

	p.logger.Info("Watching icons", "path", w.Dir())
	return nil
}

func (p *Plugin) onIconChange(ctx context.Context, srv host.DevServer, event filewatcher.ChangeEvent) {
	if event.Error != nil {
		p.logger.Warn("Icon watcher error", "error", event.Error)
		return
	}
	p.logger.Debug("Icon changed", "op", event.Op, "path", event.Path)

	if _, err := p.Regenerate(ctx); err != nil {
		if ctx.Err() == nil {
			p.logger.Error("Failed to regenerate icon font", "error", err)
		}
		return
	}
	if srv.ModuleGraph().Invalidate(ResolvedVirtualModuleID) {
		srv.FullReload()
	}
}

// Middleware serves the current font buffers at their placeholder URLs.
// Requests for a format that has not been generated yet get 404; all other
// paths fall through to next.
func (p *Plugin) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := placeholder.ParseURL(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		var data []byte
		if st := p.State(); st != nil {
			data = st.Font(f)
		}
		// nil means not generated; an empty buffer is a completed pass
		if data == nil {
			http.NotFound(w, r)
			return
		}

		h := w.Header()
		h.Set("Content-Type", f.ContentType())
		h.Set("Cache-Control", "no-cache")
		h.Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(data)
		}
	})
}

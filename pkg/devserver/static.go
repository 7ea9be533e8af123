package devserver

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

var clientTag = []byte(`<script type="module" src="` + ClientPath + `"></script>`)

// staticHandler serves files under root. HTML pages get the reload client
// injected before </body>.
type staticHandler struct {
	root  string
	files http.Handler
}

func newStaticHandler(root string) http.Handler {
	return &staticHandler{root: root, files: http.FileServer(http.Dir(root))}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}
	if path.Ext(name) != ".html" {
		h.files.ServeHTTP(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(h.root, filepath.FromSlash(name)))
	if err != nil {
		h.files.ServeHTTP(w, r)
		return
	}
	data = injectClient(data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func injectClient(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if i < 0 {
		return append(append(page, '\n'), clientTag...)
	}
	out := make([]byte, 0, len(page)+len(clientTag))
	out = append(out, page[:i]...)
	out = append(out, clientTag...)
	return append(out, page[i:]...)
}

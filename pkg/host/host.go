// Package host defines the contract between build plugins and the hosts
// that run them: the development server and the production bundler.
package host

import (
	"context"
	"net/http"
)

// Plugin is the base hook every plugin implements
type Plugin interface {
	Name() string
}

// Resolver maps an import specifier to a resolved module id
type Resolver interface {
	ResolveID(id string) (resolved string, ok bool)
}

// Loader produces source for a resolved module id. ok is false when the
// plugin does not own id.
type Loader interface {
	Load(ctx context.Context, id string) (code string, ok bool, err error)
}

// ServerConfigurer is called once when a development server starts
type ServerConfigurer interface {
	ConfigureServer(server DevServer) error
}

// BundleGenerator post-processes output assets before they are written
type BundleGenerator interface {
	GenerateBundle(ctx context.Context, bundle *Bundle) error
}

// Middleware wraps the next handler in the dev server chain
type Middleware func(next http.Handler) http.Handler

// ModuleGraph is the dev server's cache of transformed modules
type ModuleGraph interface {
	// Invalidate drops the cached code for id and reports whether the
	// graph held it.
	Invalidate(id string) bool
}

// DevServer is the surface a plugin sees of a running development server
type DevServer interface {
	ModuleGraph() ModuleGraph
	// FullReload tells every connected client to reload the page
	FullReload()
	// Use appends a middleware ahead of the server's own handlers
	Use(mw Middleware)
	// OnClose registers fn to run when the server shuts down
	OnClose(fn func() error)
}

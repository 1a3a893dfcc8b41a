package endpoints

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/d1mk9/aiproxy/internal/api"
)

// Routes served by the router.
const (
	HelloPath  = "/api/hello"
	ClaudePath = "/api/claude"
)

// Request is a transport-neutral HTTP request.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Endpoint handles every method of one route.
type Endpoint interface {
	Serve(ctx context.Context, method string, body []byte) Reply
}

// Options configures the router.
type Options struct {
	// QueryTimeout bounds a single query; zero waits indefinitely.
	QueryTimeout time.Duration
}

// Router maps (method, path, body) to a Reply. It holds no per-request state.
type Router struct {
	routes map[string]Endpoint
}

func NewRouter(q api.Querier, n Notifier, opts Options) *Router {
	return &Router{routes: map[string]Endpoint{
		HelloPath:  NewStatusEndpoint(),
		ClaudePath: NewQueryEndpoint(q, n, opts.QueryTimeout),
	}}
}

// Paths lists the registered routes in lexical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Dispatch runs the endpoint registered for req.Path.
func (r *Router) Dispatch(ctx context.Context, req Request) Reply {
	path := req.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	e, ok := r.routes[path]
	if !ok {
		return Error(http.StatusNotFound, "Not found")
	}
	return e.Serve(ctx, req.Method, req.Body)
}

// Package httpmiddleware contains the net/http middleware chain shared by the
// checkout services.
package httpmiddleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost one,
// so it sees the request first and the response last.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder returns the route template serving r, such as "/add".
type RouteFinder func(r *http.Request) (string, bool)

// MakeRouteFinder resolves route templates against router. Requests that do
// not match any route (including method mismatches) are reported as unknown.
func MakeRouteFinder(router *mux.Router) RouteFinder {
	return func(r *http.Request) (string, bool) {
		var match mux.RouteMatch
		if !router.Match(r, &match) || match.MatchErr != nil || match.Route == nil {
			return "", false
		}
		tpl, err := match.Route.GetPathTemplate()
		if err != nil {
			return "", false
		}
		return tpl, true
	}
}

// routeName returns the route template or a fixed placeholder, keeping label
// and span name cardinality bounded.
func routeName(find RouteFinder, r *http.Request) string {
	if find != nil {
		if route, ok := find(r); ok {
			return route
		}
	}
	return "unknown"
}

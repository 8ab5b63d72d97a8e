// Package router is a thin prefix-aware layer over echo, the router controllers
// register their routes on.
package router

import (
	"path"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

type Router struct {
	*echo.Echo

	// urlPath is the router urlPath
	urlPath string
}

func New() *Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Router{
		Echo:    e,
		urlPath: "/",
	}
}

// Group returns a router sharing the same echo instance whose routes are prefixed with urlPath.
func (router *Router) Group(urlPath string) *Router {
	return &Router{
		Echo:    router.Echo,
		urlPath: path.Join(router.urlPath, urlPath),
	}
}

// Prefix returns the URL path prefix of the router.
func (router *Router) Prefix() string {
	return router.urlPath
}

// Register registers controller's endpoints
func (router *Router) Register(controllers ...Controller) {
	for _, controller := range controllers {
		controller.Register(router)
	}
}

// Use adds middleware to the chain which is run after router.
// The middleware only applies to routes at or below the router prefix.
func (router *Router) Use(middlewares ...echo.MiddlewareFunc) {
	for _, middleware := range middlewares {
		router.Echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(ctx echo.Context) error {
				if router.covers(ctx.Path()) {
					return middleware(next)(ctx)
				}

				return next(ctx)
			}
		})
	}
}

// Routes returns the registered routes below the router prefix as "METHOD path", sorted.
func (router *Router) Routes() []string {
	var routes []string

	for _, route := range router.Echo.Routes() {
		if router.covers(route.Path) {
			routes = append(routes, route.Method+" "+route.Path)
		}
	}

	slices.Sort(routes)

	return routes
}

// covers reports whether urlPath is the router prefix or below it, segment-wise.
func (router *Router) covers(urlPath string) bool {
	prefix := strings.Trim(router.urlPath, "/")
	urlPath = strings.Trim(urlPath, "/")

	return prefix == "" || urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
}

// GET registers a new GET route for a path with matching handler in the router
// with optional route-level middleware.
func (router *Router) GET(urlPath string, handle echo.HandlerFunc, middlewares ...echo.MiddlewareFunc) {
	router.Echo.GET(path.Join(router.urlPath, urlPath), handle, middlewares...)
}

// POST registers a new POST route for a path with matching handler in the
// router with optional route-level middleware.
func (router *Router) POST(urlPath string, handle echo.HandlerFunc, middlewares ...echo.MiddlewareFunc) {
	router.Echo.POST(path.Join(router.urlPath, urlPath), handle, middlewares...)
}

// PUT registers a new PUT route for a path with matching handler in the
// router with optional route-level middleware.
func (router *Router) PUT(urlPath string, handle echo.HandlerFunc, middlewares ...echo.MiddlewareFunc) {
	router.Echo.PUT(path.Join(router.urlPath, urlPath), handle, middlewares...)
}

// DELETE registers a new DELETE route for a path with matching handler in the router
// with optional route-level middleware.
func (router *Router) DELETE(urlPath string, handle echo.HandlerFunc, middlewares ...echo.MiddlewareFunc) {
	router.Echo.DELETE(path.Join(router.urlPath, urlPath), handle, middlewares...)
}

// Package router assembles the versioned gin route tree.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts authenticated routes under the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// PublicRegistrar mounts routes that must work before a tenant exists,
// such as provisioning.
type PublicRegistrar interface {
	RegisterPublicRoutes(rg *gin.RouterGroup)
}

// WebhookRegistrar mounts routes called by external services that sign
// requests instead of carrying bearer tokens.
type WebhookRegistrar interface {
	RegisterWebhookRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Authenticated routes sit
// behind the auth middleware; public and webhook routes bypass it and
// verify callers their own way.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	auth       gin.HandlerFunc
	registrars []any
}

// RouterOption is a functional option for Router configuration.
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2").
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance. auth guards every
// registrar's RegisterRoutes group.
func NewRouter(engine *gin.Engine, auth gin.HandlerFunc, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		auth:       auth,
		registrars: make([]any, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a registrar. A single handler may implement any mix of
// the registrar interfaces; each is honored during Setup.
func (r *Router) Register(registrar any) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	protected := api.Group("")
	if r.auth != nil {
		protected.Use(r.auth)
	}

	for _, registrar := range r.registrars {
		if pub, ok := registrar.(PublicRegistrar); ok {
			pub.RegisterPublicRoutes(api)
		}
		if hook, ok := registrar.(WebhookRegistrar); ok {
			hook.RegisterWebhookRoutes(api)
		}
		if reg, ok := registrar.(RouteRegistrar); ok {
			reg.RegisterRoutes(protected)
		}
	}
}

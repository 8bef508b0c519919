package router

import "github.com/gin-gonic/gin"

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	closers     []func()
}

// NewRegistry mounts every module under prefix ("" for the root).
func NewRegistry(engine *gin.Engine, prefix string) *Registry {
	return &Registry{Engine: engine, API: engine.Group(prefix)}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}

// OnClose registers fn to run when the server shuts down.
func (r *Registry) OnClose(fn func()) {
	r.closers = append(r.closers, fn)
}

// Close runs the registered closers in reverse order.
func (r *Registry) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

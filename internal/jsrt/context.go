package jsrt

import (
	"fmt"
	"weak"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/shared/id"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ContextOptions configures a new context
type ContextOptions struct {
	// ExposeGC installs a global gc() that triggers a Go collection
	ExposeGC bool

	// ExposeConsole installs a console object that writes through the isolate logger
	ExposeConsole bool

	// GlobalTemplate, when set, builds the object adopted as the global object.
	// It must expose every cached constructor with an object prototype.
	GlobalTemplate func(vm *goja.Runtime) (*goja.Object, error)
}

type contextState int

const (
	stateNew contextState = iota
	stateInitializing
	stateReady
	stateFailed
	stateDisposed
)

// Context is one global object with its built-ins, backed by its own goja runtime.
type Context struct {
	id   id.ContextID
	iso  *Isolate
	vm   *goja.Runtime
	log  *logging.Logger
	opts ContextOptions

	state        contextState
	cache        valueCache
	embedderData [EmbedderDataSlots]any

	// Guarded by iso.mu. crossContextObjects is keyed by objects this context
	// owns; crossContextProxies by proxies living in this context.
	crossContextObjects map[weak.Pointer[goja.Object]][]*crossContextEntry
	crossContextProxies map[weak.Pointer[goja.Object]]*crossContextEntry
}

// NewContext creates and initializes a context. A context that fails
// initialization is discarded and never becomes visible to ContextOf.
func (iso *Isolate) NewContext(opts ContextOptions) (*Context, error) {
	if iso.disposed {
		return nil, ErrIsolateDisposed
	}

	vm := goja.New()
	if iso.maxCallStackSize > 0 {
		vm.SetMaxCallStackSize(iso.maxCallStackSize)
	}

	cid := id.NewContextID()
	c := &Context{
		id:                  cid,
		iso:                 iso,
		vm:                  vm,
		log:                 iso.log.Component("context", zap.String("context", cid.String())),
		opts:                opts,
		crossContextObjects: make(map[weak.Pointer[goja.Object]][]*crossContextEntry),
		crossContextProxies: make(map[weak.Pointer[goja.Object]]*crossContextEntry),
	}
	iso.contexts = append(iso.contexts, c)

	if err := c.EnsureInitialized(); err != nil {
		iso.removeContext(c)
		c.state = stateDisposed
		iso.metrics.ContextFailed()
		c.log.Warn("context initialization failed", zap.Error(err))
		return nil, err
	}

	iso.metrics.ContextCreated()
	c.log.Debug("context created",
		zap.Bool("expose_gc", opts.ExposeGC),
		zap.Bool("template", opts.GlobalTemplate != nil))
	return c, nil
}

// ID returns the context id
func (c *Context) ID() id.ContextID {
	return c.id
}

// Isolate returns the owning isolate
func (c *Context) Isolate() *Isolate {
	return c.iso
}

// Runtime returns the underlying goja runtime. Callers must hold a scope for
// the context while running script on it.
func (c *Context) Runtime() *goja.Runtime {
	return c.vm
}

// Initialized reports whether EnsureInitialized completed
func (c *Context) Initialized() bool {
	return c.state == stateReady
}

// Disposed reports whether the context was disposed
func (c *Context) Disposed() bool {
	return c.state == stateDisposed
}

// Dispose releases the context. Proxies other contexts hold for its objects
// are revoked, proxies it holds for foreign objects are unregistered, and
// cached values and embedder data are dropped. Disposing an entered context
// panics.
func (c *Context) Dispose() {
	if c.state == stateDisposed {
		return
	}
	for s := c.iso.scope; s != nil; s = s.previous {
		if s.context == c {
			panic(ErrContextInUse)
		}
	}

	released := c.iso.releaseCrossContext(c)

	c.state = stateDisposed
	c.cache = valueCache{}
	c.embedderData = [EmbedderDataSlots]any{}
	c.iso.removeContext(c)

	c.iso.metrics.ContextDisposed()
	c.log.Debug("context disposed", zap.Int("cross_context_released", released))
}

// checkReady reports whether cached values may be read or created
func (c *Context) checkReady() error {
	switch c.state {
	case stateReady, stateInitializing:
		return nil
	case stateDisposed:
		return ErrContextDisposed
	default:
		return ErrNotInitialized
	}
}

// owns reports whether obj was created by this context's runtime.
// goja refuses to move an object into a foreign runtime, which is the probe.
func (c *Context) owns(obj *goja.Object) (owned bool) {
	defer func() {
		if recover() != nil {
			owned = false
		}
	}()
	c.vm.ToValue(obj)
	return true
}

// stats must be called with iso.mu held
func (c *Context) stats() ContextStats {
	s := ContextStats{
		ID:             c.id.String(),
		Initialized:    c.state == stateReady,
		CrossContextIn: len(c.crossContextProxies),
		CachedBuiltins: c.cache.count(),
	}
	for _, entries := range c.crossContextObjects {
		s.CrossContextOut += len(entries)
	}
	for _, v := range c.embedderData {
		if v != nil {
			s.EmbedderDataUsed++
		}
	}
	return s
}

func (c *Context) String() string {
	return fmt.Sprintf("Context(%s)", c.id)
}

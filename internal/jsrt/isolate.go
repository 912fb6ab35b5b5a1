package jsrt

import (
	"slices"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/shared/id"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// DefaultMaxCallStackSize bounds script recursion for every context of an isolate
const DefaultMaxCallStackSize = 1024

// Isolate owns a set of contexts, the scope stack that selects the current
// one, and the value to context lookup.
//
// An isolate and its contexts must be driven from one goroutine at a time.
// The only exception is registry cleanup, which the Go runtime delivers on
// its own goroutine and which is serialized through mu.
type Isolate struct {
	id      id.IsolateID
	log     *logging.Logger
	metrics *monitoring.Metrics

	maxCallStackSize int
	created          time.Time

	contexts []*Context
	scope    *Scope
	depth    int
	disposed bool

	// mu guards every context's cross-context registry
	mu sync.Mutex
}

// IsolateOption configures an isolate
type IsolateOption func(*Isolate)

// WithLogger sets the isolate logger
func WithLogger(log *logging.Logger) IsolateOption {
	return func(iso *Isolate) {
		if log != nil {
			iso.log = log
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *monitoring.Metrics) IsolateOption {
	return func(iso *Isolate) {
		iso.metrics = metrics
	}
}

// WithMaxCallStackSize bounds script recursion; zero keeps the engine default
func WithMaxCallStackSize(size int) IsolateOption {
	return func(iso *Isolate) {
		iso.maxCallStackSize = size
	}
}

// NewIsolate creates an empty isolate
func NewIsolate(opts ...IsolateOption) *Isolate {
	iso := &Isolate{
		id:               id.NewIsolateID(),
		log:              logging.Nop(),
		maxCallStackSize: DefaultMaxCallStackSize,
		created:          time.Now(),
	}
	for _, opt := range opts {
		opt(iso)
	}
	iso.log = iso.log.Component("jsrt", zap.String("isolate", iso.id.String()))
	return iso
}

// ID returns the isolate id
func (iso *Isolate) ID() id.IsolateID {
	return iso.id
}

// CurrentContext returns the context of the innermost scope, or nil
func (iso *Isolate) CurrentContext() *Context {
	if iso.scope == nil {
		return nil
	}
	return iso.scope.context
}

// Contexts returns the live contexts in creation order
func (iso *Isolate) Contexts() []*Context {
	return slices.Clone(iso.contexts)
}

// ContextOf returns the context that owns v, or nil for primitives and
// values created outside this isolate.
func (iso *Isolate) ContextOf(v goja.Value) *Context {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil
	}
	for _, c := range iso.contexts {
		if c.owns(obj) {
			return c
		}
	}
	return nil
}

// Stats summarizes isolate state for the debug endpoint
type Stats struct {
	ID         string         `json:"id"`
	Uptime     string         `json:"uptime"`
	ScopeDepth int            `json:"scope_depth"`
	Current    string         `json:"current,omitempty"`
	Contexts   []ContextStats `json:"contexts"`
}

// ContextStats summarizes one context
type ContextStats struct {
	ID               string `json:"id"`
	Initialized      bool   `json:"initialized"`
	CrossContextOut  int    `json:"cross_context_out"`
	CrossContextIn   int    `json:"cross_context_in"`
	CachedBuiltins   int    `json:"cached_builtins"`
	EmbedderDataUsed int    `json:"embedder_data_used"`
}

// Stats returns a snapshot of the isolate
func (iso *Isolate) Stats() Stats {
	s := Stats{
		ID:         iso.id.String(),
		Uptime:     time.Since(iso.created).Round(time.Second).String(),
		ScopeDepth: iso.depth,
		Contexts:   make([]ContextStats, 0, len(iso.contexts)),
	}
	if c := iso.CurrentContext(); c != nil {
		s.Current = c.id.String()
	}

	iso.mu.Lock()
	defer iso.mu.Unlock()
	for _, c := range iso.contexts {
		s.Contexts = append(s.Contexts, c.stats())
	}
	return s
}

// Dispose disposes every context. The scope stack must be empty.
func (iso *Isolate) Dispose() {
	if iso.disposed {
		return
	}
	if iso.scope != nil {
		panic(ErrContextInUse)
	}
	for len(iso.contexts) > 0 {
		iso.contexts[len(iso.contexts)-1].Dispose()
	}
	iso.disposed = true
	iso.log.Debug("isolate disposed")
}

func (iso *Isolate) removeContext(c *Context) {
	iso.contexts = slices.DeleteFunc(iso.contexts, func(other *Context) bool {
		return other == c
	})
}

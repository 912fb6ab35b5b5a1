package jsrt

// Scope is a frame on the isolate's scope stack. Scopes nest strictly:
//
//	scope := c.Enter()
//	defer scope.Exit()
//
// goja runtimes need no explicit activation, so entering a context only
// makes it current for the isolate.
type Scope struct {
	previous *Scope
	context  *Context
	exited   bool
}

// Enter makes c the current context until the returned scope exits.
// Entering a disposed context panics with ErrContextDisposed.
func (c *Context) Enter() *Scope {
	if c.state == stateDisposed {
		panic(ErrContextDisposed)
	}
	iso := c.iso
	s := &Scope{previous: iso.scope, context: c}
	iso.scope = s
	iso.depth++
	iso.metrics.SetScopeDepth(iso.depth)
	return s
}

// Exit restores the context that was current before Enter. Exiting a scope
// twice, or any scope other than the innermost, panics with ErrScopeOrder.
func (s *Scope) Exit() {
	iso := s.context.iso
	if s.exited || iso.scope != s {
		panic(ErrScopeOrder)
	}
	s.exited = true
	iso.scope = s.previous
	iso.depth--
	iso.metrics.SetScopeDepth(iso.depth)
}

// Context returns the context the scope entered
func (s *Scope) Context() *Context {
	return s.context
}

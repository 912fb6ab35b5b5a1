package jsrt

import "github.com/dop251/goja"

// ExecuteInContextOf runs fn inside the context that owns v. When v has no
// owner (primitives, foreign values) or its owner is already current, fn
// runs without switching.
func ExecuteInContextOf[R any](iso *Isolate, v goja.Value, fn func() (R, error)) (R, error) {
	if c := iso.ContextOf(v); c != nil && c != iso.CurrentContext() {
		scope := c.Enter()
		defer scope.Exit()
	}
	return fn()
}

// runIn runs fn with c current
func runIn[R any](c *Context, fn func() (R, error)) (R, error) {
	if c != c.iso.CurrentContext() {
		scope := c.Enter()
		defer scope.Exit()
	}
	return fn()
}

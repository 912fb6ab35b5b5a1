package jsrt

import (
	"context"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"
)

func newTestIsolate(t *testing.T, opts ...IsolateOption) *Isolate {
	t.Helper()
	iso := NewIsolate(opts...)
	t.Cleanup(iso.Dispose)
	return iso
}

func newTestContext(t *testing.T, iso *Isolate) *Context {
	t.Helper()
	c, err := iso.NewContext(ContextOptions{})
	require.NoError(t, err)
	return c
}

func run(t *testing.T, c *Context, src string) goja.Value {
	t.Helper()
	v, err := c.RunScript(context.Background(), t.Name()+".js", src)
	require.NoError(t, err)
	return v
}

func runObject(t *testing.T, c *Context, src string) *goja.Object {
	t.Helper()
	obj, ok := run(t, c, src).(*goja.Object)
	require.True(t, ok, "script did not return an object")
	return obj
}

// copyGlobals builds a template holding every property of the runtime's own global object
func copyGlobals(vm *goja.Runtime) (*goja.Object, error) {
	tmpl := vm.NewObject()
	global := vm.GlobalObject()
	for _, name := range global.GetOwnPropertyNames() {
		if err := tmpl.Set(name, global.Get(name)); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

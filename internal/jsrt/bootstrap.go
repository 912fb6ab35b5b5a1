package jsrt

import (
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

//go:embed shim.js
var shimSource string

// The bootstrap program is compiled once and shared by every runtime.
var shimProgram = sync.OnceValues(func() (*goja.Program, error) {
	return goja.Compile("jsrt:shim.js", shimSource, false)
})

// Core constructors every context resolves eagerly.
var coreGlobalTypes = []GlobalType{TypeObject, TypeFunction, TypeArray, TypeProxy, TypeReflect}

// EnsureInitialized populates the core cache subset and runs the bootstrap
// script. It runs once; after a failure the context stays unusable and
// every later call reports ErrNotInitialized.
func (c *Context) EnsureInitialized() error {
	switch c.state {
	case stateReady, stateInitializing:
		return nil
	case stateFailed:
		return ErrNotInitialized
	case stateDisposed:
		return ErrContextDisposed
	}

	c.state = stateInitializing
	scope := c.Enter()
	defer scope.Exit()

	if err := c.initialize(); err != nil {
		c.cache = valueCache{}
		c.state = stateFailed
		return fmt.Errorf("jsrt: initialize context %s: %w", c.id, err)
	}
	c.state = stateReady
	return nil
}

func (c *Context) initialize() error {
	c.cache.trueValue = c.vm.ToValue(true)
	c.cache.falseValue = c.vm.ToValue(false)
	c.cache.undefinedValue = goja.Undefined()
	c.cache.nullValue = goja.Null()
	c.cache.zero = c.vm.ToValue(0)

	if err := c.adoptGlobalObject(); err != nil {
		return err
	}

	for _, t := range coreGlobalTypes {
		if _, err := c.GlobalType(t); err != nil {
			return err
		}
	}
	if _, err := c.ReflectObject(); err != nil {
		return err
	}
	for t := range proxyTrapCount {
		if _, err := c.ReflectFunctionForTrap(t); err != nil {
			return err
		}
	}
	if _, err := c.GetOwnPropertyDescriptorFunction(); err != nil {
		return err
	}
	if _, err := c.ProxyOfGlobal(); err != nil {
		return err
	}

	if err := c.executeShim(); err != nil {
		return &InitError{Name: "bootstrap script", Err: err}
	}
	if err := c.installObjectPrototypeToString(); err != nil {
		return &InitError{Name: "Object.prototype.toString", Err: err}
	}

	if c.opts.ExposeGC {
		if err := c.exposeGC(); err != nil {
			return &InitError{Name: "gc", Err: err}
		}
	}
	if c.opts.ExposeConsole {
		if err := c.installConsole(); err != nil {
			return &InitError{Name: "console", Err: err}
		}
	}
	return nil
}

// adoptGlobalObject takes the runtime's global object, or the configured
// template after checking its shape.
func (c *Context) adoptGlobalObject() error {
	if c.opts.GlobalTemplate == nil {
		c.cache.globalObject = c.vm.GlobalObject()
		return nil
	}

	var (
		tmpl *goja.Object
		err  error
	)
	if ex := c.vm.Try(func() { tmpl, err = c.opts.GlobalTemplate(c.vm) }); ex != nil {
		err = ex
	}
	if err != nil {
		return &InitError{Name: "global template", Err: err}
	}
	if tmpl == nil {
		return &InitError{Name: "global template", Err: errors.New("template returned no object")}
	}
	if !c.owns(tmpl) {
		return &InitError{Name: "global template", Err: ErrNotOwned}
	}
	if err := c.checkGlobalTemplate(tmpl); err != nil {
		return err
	}

	c.vm.SetGlobalObject(tmpl)
	c.cache.globalObject = tmpl
	return nil
}

// checkGlobalTemplate requires every cached constructor to be a function
// with an object prototype (Proxy has none) and every namespace to be an object.
func (c *Context) checkGlobalTemplate(tmpl *goja.Object) error {
	var missing []string
	for t := range globalTypeCount {
		info := globalTypes[t]
		if info.namespace {
			if _, err := c.objectProperty(tmpl, info.name); err != nil {
				missing = append(missing, info.name)
			}
			continue
		}
		ctor, err := c.functionProperty(tmpl, info.name)
		if err != nil {
			missing = append(missing, info.name)
			continue
		}
		if info.noPrototype {
			continue
		}
		if _, err := c.objectProperty(ctor, "prototype"); err != nil {
			missing = append(missing, info.name+".prototype")
		}
	}
	if len(missing) > 0 {
		return &TemplateMismatchError{Missing: missing}
	}
	return nil
}

// executeShim runs the bootstrap script, which fills the private keep-alive
// object with the helper functions.
func (c *Context) executeShim() error {
	prog, err := shimProgram()
	if err != nil {
		return err
	}
	v, err := c.vm.RunProgram(prog)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return errors.New("bootstrap script did not evaluate to a function")
	}

	keepAlive := c.vm.NewObject()
	if _, err := fn(goja.Undefined(), keepAlive, c.cache.globalObject); err != nil {
		return err
	}
	c.cache.keepAlive = keepAlive
	return nil
}

// installObjectPrototypeToString replaces Object.prototype.toString. Called
// on a cross-context proxy it reports the tag of the source object; every
// other receiver goes to the original, which stays cached as ObjectToString.
func (c *Context) installObjectPrototypeToString() error {
	original, err := c.GlobalPrototypeFunction(ObjectToString)
	if err != nil {
		return err
	}
	toString, _ := goja.AssertFunction(original)
	object, err := c.ObjectConstructor()
	if err != nil {
		return err
	}
	proto, err := c.objectProperty(object, "prototype")
	if err != nil {
		return err
	}

	shim := c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if obj, ok := call.This.(*goja.Object); ok {
			if entry, source := c.sourceOf(obj); entry != nil && source != nil {
				return entry.tag(source)
			}
		}
		v, err := toString(call.This)
		if err != nil {
			var ex *goja.Exception
			if errors.As(err, &ex) {
				panic(ex.Value())
			}
			panic(c.vm.NewGoError(err))
		}
		return v
	}).(*goja.Object)

	if err := shim.DefineDataProperty("name", c.vm.ToValue("toString"), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE); err != nil {
		return err
	}
	if err := proto.DefineDataProperty("toString", shim, goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE); err != nil {
		return err
	}
	c.cache.objectToStringShim = shim
	return nil
}

// exposeGC installs gc(). Registry cleanups for unreachable proxies are
// delivered asynchronously after the collection.
func (c *Context) exposeGC() error {
	return c.cache.globalObject.Set("gc", func(goja.FunctionCall) goja.Value {
		runtime.GC()
		c.log.Debug("gc requested by script")
		return goja.Undefined()
	})
}

// installConsole writes console output through the context logger
func (c *Context) installConsole() error {
	console := c.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, c.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	return c.cache.globalObject.Set("console", console)
}

func (c *Context) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	log := c.log.Named("console")
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}

		fields := []zap.Field{zap.String("level", level)}
		switch level {
		case "error":
			log.Error(msg, fields...)
		case "warn":
			log.Warn(msg, fields...)
		case "debug":
			log.Debug(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
		return goja.Undefined()
	}
}

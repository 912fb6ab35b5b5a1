package jsrt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dop251/goja"
)

// valueCache holds lazily created engine values. A slot is written at most
// once; a failed initializer leaves it empty so the next read retries.
type valueCache struct {
	trueValue      goja.Value
	falseValue     goja.Value
	undefinedValue goja.Value
	nullValue      goja.Value
	zero           goja.Value

	globalObject  *goja.Object
	proxyOfGlobal *goja.Object
	reflectObject *goja.Object
	keepAlive     *goja.Object
	keepAliveLen  int

	getOwnPropertyDescriptor *goja.Object
	objectToStringShim       *goja.Object

	globalTypes        [globalTypeCount]*goja.Object
	prototypeFunctions [prototypeFunctionCount]*goja.Object
	reflectFunctions   [proxyTrapCount]*goja.Object
	shimFunctions      [shimFunctionCount]*goja.Object
	throwAccessorError [ThrowAccessorErrorFunctions]*goja.Object
}

func (vc *valueCache) count() int {
	n := 0
	add := func(slots ...*goja.Object) {
		for _, s := range slots {
			if s != nil {
				n++
			}
		}
	}
	add(vc.globalObject, vc.proxyOfGlobal, vc.reflectObject, vc.keepAlive, vc.getOwnPropertyDescriptor, vc.objectToStringShim)
	add(vc.globalTypes[:]...)
	add(vc.prototypeFunctions[:]...)
	add(vc.reflectFunctions[:]...)
	add(vc.shimFunctions[:]...)
	add(vc.throwAccessorError[:]...)
	return n
}

// initBuiltIn returns *slot, running get to fill it when empty.
func (c *Context) initBuiltIn(slot **goja.Object, name string, get func() (*goja.Object, error)) (*goja.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if *slot != nil {
		return *slot, nil
	}

	v, err := get()
	if err == nil && v == nil {
		err = errors.New("initializer returned no value")
	}
	c.iso.metrics.RecordBuiltinInit(err)
	if err != nil {
		return nil, &InitError{Name: name, Err: err}
	}

	*slot = v
	return v, nil
}

// property reads obj[name] without letting a throwing getter escape.
func (c *Context) property(obj *goja.Object, name string) (goja.Value, error) {
	var v goja.Value
	if ex := c.vm.Try(func() { v = obj.Get(name) }); ex != nil {
		return nil, ex
	}
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("%s is not defined", name)
	}
	return v, nil
}

func (c *Context) objectProperty(obj *goja.Object, name string) (*goja.Object, error) {
	v, err := c.property(obj, name)
	if err != nil {
		return nil, err
	}
	o, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%s is not an object", name)
	}
	return o, nil
}

func (c *Context) functionProperty(obj *goja.Object, name string) (*goja.Object, error) {
	o, err := c.objectProperty(obj, name)
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(o); !ok {
		return nil, fmt.Errorf("%s is not a function", name)
	}
	return o, nil
}

// Sentinels are populated by EnsureInitialized and are nil before it and
// after Dispose.

// True returns the context's cached true value.
func (c *Context) True() goja.Value { return c.cache.trueValue }

// False returns the context's cached false value.
func (c *Context) False() goja.Value { return c.cache.falseValue }

// Undefined returns the cached undefined value.
func (c *Context) Undefined() goja.Value { return c.cache.undefinedValue }

// Null returns the cached null value.
func (c *Context) Null() goja.Value { return c.cache.nullValue }

// Zero returns the context's cached number 0.
func (c *Context) Zero() goja.Value { return c.cache.zero }

// GlobalObject returns the adopted global object
func (c *Context) GlobalObject() *goja.Object {
	return c.cache.globalObject
}

// GlobalType returns the cached constructor (or namespace object) for t.
func (c *Context) GlobalType(t GlobalType) (*goja.Object, error) {
	if t < 0 || t >= globalTypeCount {
		panic(fmt.Sprintf("jsrt: %v out of range", t))
	}
	info := globalTypes[t]
	return c.initBuiltIn(&c.cache.globalTypes[t], info.name, func() (*goja.Object, error) {
		if info.namespace {
			return c.objectProperty(c.cache.globalObject, info.name)
		}
		return c.functionProperty(c.cache.globalObject, info.name)
	})
}

// ObjectConstructor returns the cached Object constructor.
func (c *Context) ObjectConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeObject)
}

// BooleanObjectConstructor returns the cached Boolean constructor.
func (c *Context) BooleanObjectConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeBoolean)
}

// NumberObjectConstructor returns the cached Number constructor.
func (c *Context) NumberObjectConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeNumber)
}

// StringObjectConstructor returns the cached String constructor.
func (c *Context) StringObjectConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeString)
}

// DateConstructor returns the cached Date constructor.
func (c *Context) DateConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeDate)
}

// RegExpConstructor returns the cached RegExp constructor.
func (c *Context) RegExpConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeRegExp)
}

// ProxyConstructor returns the cached Proxy constructor.
func (c *Context) ProxyConstructor() (*goja.Object, error) {
	return c.GlobalType(TypeProxy)
}

// GlobalPrototypeFunction returns the cached Ctor.prototype[method] for f.
func (c *Context) GlobalPrototypeFunction(f GlobalPrototypeFunction) (*goja.Object, error) {
	if f < 0 || f >= prototypeFunctionCount {
		panic(fmt.Sprintf("jsrt: %v out of range", f))
	}
	info := prototypeFunctions[f]
	return c.initBuiltIn(&c.cache.prototypeFunctions[f], f.String(), func() (*goja.Object, error) {
		ctor, err := c.GlobalType(info.owner)
		if err != nil {
			return nil, err
		}
		proto, err := c.objectProperty(ctor, "prototype")
		if err != nil {
			return nil, err
		}
		return c.functionProperty(proto, info.method)
	})
}

// StringConcatFunction returns String.prototype.concat
func (c *Context) StringConcatFunction() (*goja.Object, error) {
	return c.GlobalPrototypeFunction(StringConcat)
}

// GetOwnPropertyDescriptorFunction returns Object.getOwnPropertyDescriptor
func (c *Context) GetOwnPropertyDescriptorFunction() (*goja.Object, error) {
	return c.initBuiltIn(&c.cache.getOwnPropertyDescriptor, "Object.getOwnPropertyDescriptor", func() (*goja.Object, error) {
		ctor, err := c.ObjectConstructor()
		if err != nil {
			return nil, err
		}
		return c.functionProperty(ctor, "getOwnPropertyDescriptor")
	})
}

// ReflectObject returns the global Reflect namespace
func (c *Context) ReflectObject() (*goja.Object, error) {
	return c.initBuiltIn(&c.cache.reflectObject, "Reflect", func() (*goja.Object, error) {
		return c.objectProperty(c.cache.globalObject, "Reflect")
	})
}

// ReflectFunctionForTrap returns the Reflect function matching a proxy trap
func (c *Context) ReflectFunctionForTrap(t ProxyTrap) (*goja.Object, error) {
	if t < 0 || t >= proxyTrapCount {
		panic(fmt.Sprintf("jsrt: %v out of range", t))
	}
	return c.initBuiltIn(&c.cache.reflectFunctions[t], "Reflect."+t.String(), func() (*goja.Object, error) {
		reflect, err := c.ReflectObject()
		if err != nil {
			return nil, err
		}
		return c.functionProperty(reflect, t.String())
	})
}

// ProxyOfGlobal returns a pass-through proxy of the global object, used
// where script must observe the global without holding it directly.
func (c *Context) ProxyOfGlobal() (*goja.Object, error) {
	return c.initBuiltIn(&c.cache.proxyOfGlobal, "proxy of global", func() (*goja.Object, error) {
		var proxy *goja.Object
		ex := c.vm.Try(func() {
			proxy = c.vm.ToValue(c.vm.NewProxy(c.cache.globalObject, &goja.ProxyTrapConfig{})).(*goja.Object)
		})
		if ex != nil {
			return nil, ex
		}
		return proxy, nil
	})
}

// ShimFunction returns a helper defined by the bootstrap script.
func (c *Context) ShimFunction(f ShimFunction) (*goja.Object, error) {
	if f < 0 || f >= shimFunctionCount {
		panic(fmt.Sprintf("jsrt: %v out of range", f))
	}
	return c.initBuiltIn(&c.cache.shimFunctions[f], f.String(), func() (*goja.Object, error) {
		if c.cache.keepAlive == nil {
			return nil, errors.New("bootstrap script has not run")
		}
		return c.functionProperty(c.cache.keepAlive, f.String())
	})
}

// InstanceOfFunction returns the helper implementing `value instanceof ctor`.
func (c *Context) InstanceOfFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimInstanceOf)
}

// CloneObjectFunction returns the helper copying own properties from source to target.
func (c *Context) CloneObjectFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimCloneObject)
}

// IsUintFunction returns the helper reporting whether a value is an array index.
func (c *Context) IsUintFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimIsUint)
}

// GetStackTraceFunction returns the helper capturing the current stack as a string.
func (c *Context) GetStackTraceFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetStackTrace)
}

// TestFunctionTypeFunction returns the helper reporting whether a value is callable.
func (c *Context) TestFunctionTypeFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimTestFunctionType)
}

// CreateTargetFunction returns the factory for callable proxy targets.
func (c *Context) CreateTargetFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimCreateTargetFunction)
}

// ForEachNonConfigurablePropertyFunction returns the helper visiting non-configurable own properties.
func (c *Context) ForEachNonConfigurablePropertyFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimForEachNonConfigurableProperty)
}

// GetPropertyNamesFunction returns the helper listing enumerable property names, inherited included.
func (c *Context) GetPropertyNamesFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetPropertyNames)
}

// GetEnumerableNamedPropertiesFunction returns the helper listing enumerable non-index own keys.
func (c *Context) GetEnumerableNamedPropertiesFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetEnumerableNamedProperties)
}

// GetEnumerableIndexedPropertiesFunction returns the helper listing enumerable index own keys.
func (c *Context) GetEnumerableIndexedPropertiesFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetEnumerableIndexedProperties)
}

// CreateEnumerationIteratorFunction returns the factory for iterators over a key list.
func (c *Context) CreateEnumerationIteratorFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimCreateEnumerationIterator)
}

// CreatePropertyDescriptorsEnumerationIteratorFunction returns the factory for iterators
// yielding a writable, enumerable, configurable data descriptor per value.
func (c *Context) CreatePropertyDescriptorsEnumerationIteratorFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimCreatePropertyDescriptorsEnumerationIterator)
}

// GetNamedOwnKeysFunction returns the helper listing own non-index keys.
func (c *Context) GetNamedOwnKeysFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetNamedOwnKeys)
}

// GetIndexedOwnKeysFunction returns the helper listing own index keys.
func (c *Context) GetIndexedOwnKeysFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimGetIndexedOwnKeys)
}

// PromiseContinuationFunction returns the function that queues a task as a promise job.
// Queued tasks run once the outermost call into the runtime returns.
func (c *Context) PromiseContinuationFunction() (*goja.Object, error) {
	return c.ShimFunction(ShimPromiseContinuation)
}

// KeepAlive pins v to the context's private keep-alive object so it lives as
// long as the context.
func (c *Context) KeepAlive(v goja.Value) error {
	if err := c.checkReady(); err != nil {
		return err
	}
	if c.cache.keepAlive == nil {
		return ErrNotInitialized
	}
	key := "pinned:" + strconv.Itoa(c.cache.keepAliveLen)
	if ex := c.vm.Try(func() { _ = c.cache.keepAlive.Set(key, v) }); ex != nil {
		return ex
	}
	c.cache.keepAliveLen++
	return nil
}

const accessorErrorMessage = "'caller', 'callee', and 'arguments' properties may not be accessed on strict mode functions or the arguments objects for calls to them"

// EnsureThrowAccessorErrorFunctions creates the accessor-error thunks.
// Each is a distinct function that throws a TypeError when called.
func (c *Context) EnsureThrowAccessorErrorFunctions() error {
	for i := range c.cache.throwAccessorError {
		_, err := c.initBuiltIn(&c.cache.throwAccessorError[i], "throwAccessorError"+strconv.Itoa(i), func() (*goja.Object, error) {
			fn := c.vm.ToValue(func(goja.FunctionCall) goja.Value {
				panic(c.vm.NewTypeError(accessorErrorMessage))
			})
			return fn.(*goja.Object), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ThrowAccessorErrorFunction returns thunk i, creating the set on first use
func (c *Context) ThrowAccessorErrorFunction(i int) (*goja.Object, error) {
	if i < 0 || i >= ThrowAccessorErrorFunctions {
		panic(fmt.Sprintf("jsrt: accessor error function %d out of range", i))
	}
	if err := c.EnsureThrowAccessorErrorFunctions(); err != nil {
		return nil, err
	}
	return c.cache.throwAccessorError[i], nil
}

// FindThrowAccessorErrorFunction reports which thunk fn is, if any
func (c *Context) FindThrowAccessorErrorFunction(fn goja.Value) (int, bool) {
	obj, ok := fn.(*goja.Object)
	if !ok || obj == nil {
		return 0, false
	}
	for i, thunk := range c.cache.throwAccessorError {
		if thunk != nil && thunk == obj {
			return i, true
		}
	}
	return 0, false
}

package jsrt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dop251/goja"
)

// MarshalToContext returns the value that stands for v inside to.
// Primitives and objects owned by to pass through unchanged, a proxy whose
// source object lives in to unwraps back to that object, and any other
// object is proxied through its owner's registry.
func MarshalToContext(v goja.Value, to *Context) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v, nil
	}
	if to.owns(obj) {
		return obj, nil
	}

	owner := to.iso.ContextOf(obj)
	if owner == nil {
		return nil, fmt.Errorf("%w: value does not belong to isolate %s", ErrNotOwned, to.iso.id)
	}
	if entry, src := owner.sourceOf(obj); entry != nil && entry.from == to && src != nil {
		return src, nil
	}
	return owner.RegisterCrossContextObject(obj, to)
}

func marshalAll(values []goja.Value, to *Context) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		m, err := MarshalToContext(v, to)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// traps builds the handler of a proxy for obj. Each trap runs the source
// context's Reflect counterpart inside that context. isExtensible and
// preventExtensions stay on the fake target, which must remain extensible
// for the proxy invariants to hold.
func (e *crossContextEntry) traps(obj *goja.Object) *goja.ProxyTrapConfig {
	key := func(name string) goja.Value { return e.from.vm.ToValue(name) }
	get := func(k, receiver goja.Value) goja.Value {
		if receiver == nil {
			return e.forward(TrapGet, obj, k)
		}
		return e.forward(TrapGet, obj, k, receiver)
	}
	set := func(k, value, receiver goja.Value) bool {
		if receiver == nil {
			return e.forward(TrapSet, obj, k, value).ToBoolean()
		}
		return e.forward(TrapSet, obj, k, value, receiver).ToBoolean()
	}

	return &goja.ProxyTrapConfig{
		Get: func(_ *goja.Object, property string, receiver goja.Value) goja.Value {
			return get(key(property), receiver)
		},
		GetSym: func(_ *goja.Object, property *goja.Symbol, receiver goja.Value) goja.Value {
			return get(property, receiver)
		},
		Set: func(_ *goja.Object, property string, value, receiver goja.Value) bool {
			return set(key(property), value, receiver)
		},
		SetSym: func(_ *goja.Object, property *goja.Symbol, value, receiver goja.Value) bool {
			return set(property, value, receiver)
		},
		Has: func(_ *goja.Object, property string) bool {
			return e.forward(TrapHas, obj, key(property)).ToBoolean()
		},
		HasSym: func(_ *goja.Object, property *goja.Symbol) bool {
			return e.forward(TrapHas, obj, property).ToBoolean()
		},
		DeleteProperty: func(_ *goja.Object, property string) bool {
			return e.forward(TrapDeleteProperty, obj, key(property)).ToBoolean()
		},
		DeletePropertySym: func(_ *goja.Object, property *goja.Symbol) bool {
			return e.forward(TrapDeleteProperty, obj, property).ToBoolean()
		},
		GetOwnPropertyDescriptor: func(_ *goja.Object, property string) goja.PropertyDescriptor {
			return e.descriptor(obj, key(property))
		},
		GetOwnPropertyDescriptorSym: func(_ *goja.Object, property *goja.Symbol) goja.PropertyDescriptor {
			return e.descriptor(obj, property)
		},
		DefineProperty: func(_ *goja.Object, property string, desc goja.PropertyDescriptor) bool {
			return e.define(obj, key(property), desc)
		},
		DefinePropertySym: func(_ *goja.Object, property *goja.Symbol, desc goja.PropertyDescriptor) bool {
			return e.define(obj, property, desc)
		},
		OwnKeys: func(*goja.Object) *goja.Object {
			return e.ownKeys(obj)
		},
		GetPrototypeOf: func(*goja.Object) *goja.Object {
			proto, _ := e.forward(TrapGetPrototypeOf, obj).(*goja.Object)
			return proto
		},
		SetPrototypeOf: func(_ *goja.Object, proto *goja.Object) bool {
			var p goja.Value = goja.Null()
			if proto != nil {
				p = proto
			}
			return e.forward(TrapSetPrototypeOf, obj, p).ToBoolean()
		},
		Apply: func(_ *goja.Object, this goja.Value, args []goja.Value) goja.Value {
			return e.apply(obj, this, args)
		},
		Construct: func(_ *goja.Object, args []goja.Value, newTarget *goja.Object) *goja.Object {
			return e.construct(obj, args, newTarget)
		},
	}
}

// invoke calls the source context's Reflect function for trap with the
// arguments built by args, then converts the raw result with result. Both
// callbacks run inside the source context. Failures are rethrown in the
// destination context.
func invoke[R any](e *crossContextEntry, trap ProxyTrap, args func(from *Context) ([]goja.Value, error), result func(v goja.Value) (R, error)) R {
	if e.revoked.Load() {
		panic(e.to.vm.NewTypeError("Cannot perform '%s' on a proxy whose source context is gone", trap))
	}
	from := e.from
	out, err := runIn(from, func() (R, error) {
		var zero R
		fn, err := from.ReflectFunctionForTrap(trap)
		if err != nil {
			return zero, err
		}
		list, err := args(from)
		if err != nil {
			return zero, err
		}
		call, _ := goja.AssertFunction(fn)
		v, err := call(goja.Undefined(), list...)
		if err != nil {
			return zero, err
		}
		return result(v)
	})
	if err != nil {
		panic(e.throwable(err))
	}
	return out
}

// throwable converts a failure from the source context into a value to
// throw in the destination.
func (e *crossContextEntry) throwable(err error) goja.Value {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if v, merr := MarshalToContext(ex.Value(), e.to); merr == nil {
			return v
		}
	}
	return e.to.vm.NewGoError(err)
}

// tag runs the source context's Object.prototype.toString on source
func (e *crossContextEntry) tag(source *goja.Object) goja.Value {
	from := e.from
	s, err := runIn(from, func() (string, error) {
		if from.cache.objectToStringShim == nil {
			return "", ErrNotInitialized
		}
		toString, _ := goja.AssertFunction(from.cache.objectToStringShim)
		v, err := toString(source)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	})
	if err != nil {
		panic(e.throwable(err))
	}
	return e.to.vm.ToValue(s)
}

func (e *crossContextEntry) forward(trap ProxyTrap, obj *goja.Object, args ...goja.Value) goja.Value {
	return invoke(e, trap, func(from *Context) ([]goja.Value, error) {
		list := make([]goja.Value, 1, len(args)+1)
		list[0] = obj
		for _, a := range args {
			m, err := MarshalToContext(a, from)
			if err != nil {
				return nil, err
			}
			list = append(list, m)
		}
		return list, nil
	}, e.toDestination)
}

func (e *crossContextEntry) toDestination(v goja.Value) (goja.Value, error) {
	return MarshalToContext(v, e.to)
}

func (e *crossContextEntry) apply(obj *goja.Object, this goja.Value, args []goja.Value) goja.Value {
	return invoke(e, TrapApply, func(from *Context) ([]goja.Value, error) {
		thisArg, err := MarshalToContext(this, from)
		if err != nil {
			return nil, err
		}
		list, err := marshalAll(args, from)
		if err != nil {
			return nil, err
		}
		return []goja.Value{obj, thisArg, from.vm.NewArray(list...)}, nil
	}, e.toDestination)
}

func (e *crossContextEntry) construct(obj *goja.Object, args []goja.Value, newTarget *goja.Object) *goja.Object {
	return invoke(e, TrapConstruct, func(from *Context) ([]goja.Value, error) {
		list, err := marshalAll(args, from)
		if err != nil {
			return nil, err
		}
		nt := goja.Value(obj)
		if newTarget != nil {
			if nt, err = MarshalToContext(newTarget, from); err != nil {
				return nil, err
			}
		}
		return []goja.Value{obj, from.vm.NewArray(list...), nt}, nil
	}, func(v goja.Value) (*goja.Object, error) {
		m, err := e.toDestination(v)
		if err != nil {
			return nil, err
		}
		created, ok := m.(*goja.Object)
		if !ok {
			return nil, errors.New("construct did not return an object")
		}
		return created, nil
	})
}

// ownKeys copies the key list into a fresh destination array, as the proxy
// reads it directly.
func (e *crossContextEntry) ownKeys(obj *goja.Object) *goja.Object {
	keys := invoke(e, TrapOwnKeys, func(*Context) ([]goja.Value, error) {
		return []goja.Value{obj}, nil
	}, func(v goja.Value) ([]any, error) {
		arr, ok := v.(*goja.Object)
		if !ok {
			return nil, errors.New("ownKeys did not return an array")
		}
		var keys []any
		ex := e.from.vm.Try(func() {
			n := arr.Get("length").ToInteger()
			for i := int64(0); i < n; i++ {
				keys = append(keys, arr.Get(strconv.FormatInt(i, 10)))
			}
		})
		if ex != nil {
			return nil, ex
		}
		return keys, nil
	})
	return e.to.vm.NewArray(keys...)
}

var descriptorFields = [...]string{"value", "writable", "enumerable", "get", "set"}

// descriptor reports the source property as configurable: the fake target
// never owns the property, and a proxy may not report a non-configurable
// property its target lacks.
func (e *crossContextEntry) descriptor(obj *goja.Object, k goja.Value) goja.PropertyDescriptor {
	return invoke(e, TrapGetOwnPropertyDescriptor, func(from *Context) ([]goja.Value, error) {
		return []goja.Value{obj, k}, nil
	}, func(v goja.Value) (goja.PropertyDescriptor, error) {
		var desc goja.PropertyDescriptor
		d, ok := v.(*goja.Object)
		if !ok {
			return desc, nil
		}

		var fields [len(descriptorFields)]goja.Value
		if ex := e.from.vm.Try(func() {
			for i, name := range descriptorFields {
				fields[i] = d.Get(name)
			}
		}); ex != nil {
			return desc, ex
		}

		var err error
		marshal := func(v goja.Value) goja.Value {
			if v == nil || err != nil {
				return nil
			}
			var m goja.Value
			m, err = e.toDestination(v)
			return m
		}
		desc.Value = marshal(fields[0])
		desc.Writable = toFlag(fields[1])
		desc.Enumerable = toFlag(fields[2])
		desc.Configurable = goja.FLAG_TRUE
		desc.Getter = marshal(fields[3])
		desc.Setter = marshal(fields[4])
		return desc, err
	})
}

// define forwards Object.defineProperty. A non-configurable definition
// succeeds on the source but is then rejected by the destination's proxy
// invariants, since the fake target lacks the property.
func (e *crossContextEntry) define(obj *goja.Object, k goja.Value, desc goja.PropertyDescriptor) bool {
	return invoke(e, TrapDefineProperty, func(from *Context) ([]goja.Value, error) {
		d := from.vm.NewObject()
		set := func(name string, v goja.Value) error {
			m, err := MarshalToContext(v, from)
			if err != nil {
				return err
			}
			return d.Set(name, m)
		}
		if desc.Value != nil {
			if err := set("value", desc.Value); err != nil {
				return nil, err
			}
		}
		if desc.Getter != nil {
			if err := set("get", desc.Getter); err != nil {
				return nil, err
			}
		}
		if desc.Setter != nil {
			if err := set("set", desc.Setter); err != nil {
				return nil, err
			}
		}
		for name, flag := range map[string]goja.Flag{
			"writable":     desc.Writable,
			"enumerable":   desc.Enumerable,
			"configurable": desc.Configurable,
		} {
			if flag != goja.FLAG_NOT_SET {
				if err := d.Set(name, flag.Bool()); err != nil {
					return nil, err
				}
			}
		}
		return []goja.Value{obj, k, d}, nil
	}, func(v goja.Value) (bool, error) {
		return v.ToBoolean(), nil
	})
}

func toFlag(v goja.Value) goja.Flag {
	switch {
	case v == nil:
		return goja.FLAG_NOT_SET
	case v.ToBoolean():
		return goja.FLAG_TRUE
	default:
		return goja.FLAG_FALSE
	}
}

package jsrt

import (
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
	"weak"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// crossContextEntry records one proxy of a source object living in another
// context. It holds both sides weakly: the proxy keeps the source object
// alive, and the fake target anchoring the cleanup dies with the proxy.
type crossContextEntry struct {
	from, to *Context
	object   weak.Pointer[goja.Object]
	proxy    weak.Pointer[goja.Object]
	cleanup  runtime.Cleanup
	revoked  atomic.Bool
}

// RegisterCrossContextObject returns the proxy standing for obj in to,
// creating and registering one on first use. obj must be owned by c.
func (c *Context) RegisterCrossContextObject(obj *goja.Object, to *Context) (*goja.Object, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if err := to.checkReady(); err != nil {
		return nil, err
	}
	if to.iso != c.iso {
		return nil, ErrForeignContext
	}
	if obj == nil || !c.owns(obj) {
		return nil, ErrNotOwned
	}
	if to == c {
		return obj, nil
	}

	if proxy, ok := c.TryGetCrossContextObject(obj, to); ok {
		c.iso.metrics.RecordCrossContext(monitoring.OpHit, 0)
		return proxy, nil
	}

	target, err := to.newFakeTarget(obj)
	if err != nil {
		return nil, err
	}

	entry := &crossContextEntry{from: c, to: to, object: weak.Make(obj)}
	var proxy *goja.Object
	if ex := to.vm.Try(func() {
		proxy = to.vm.ToValue(to.vm.NewProxy(target, entry.traps(obj))).(*goja.Object)
	}); ex != nil {
		return nil, ex
	}
	entry.proxy = weak.Make(proxy)

	iso := c.iso
	iso.mu.Lock()
	c.crossContextObjects[entry.object] = append(c.crossContextObjects[entry.object], entry)
	to.crossContextProxies[entry.proxy] = entry
	entry.cleanup = runtime.AddCleanup(target, iso.finalizeCrossContext, entry)
	iso.mu.Unlock()

	iso.metrics.RecordCrossContext(monitoring.OpRegister, 1)
	c.log.Debug("cross-context object registered", zap.String("to", to.id.String()))
	return proxy, nil
}

// UnregisterCrossContextObject drops the entry for (obj, to) and revokes its
// proxy without waiting for collection. It reports false when no entry
// matches, which is expected after the collector already removed it.
func (c *Context) UnregisterCrossContextObject(obj *goja.Object, to *Context) bool {
	if obj == nil {
		return false
	}
	iso := c.iso
	iso.mu.Lock()
	var entry *crossContextEntry
	for _, e := range c.crossContextObjects[weak.Make(obj)] {
		if e.to == to {
			entry = e
			break
		}
	}
	if entry != nil {
		iso.releaseEntryLocked(entry)
	}
	iso.mu.Unlock()

	if entry == nil {
		return false
	}
	iso.metrics.RecordCrossContext(monitoring.OpUnregister, -1)
	return true
}

// TryGetCrossContextObject looks up the live proxy for (obj, to)
func (c *Context) TryGetCrossContextObject(obj *goja.Object, to *Context) (*goja.Object, bool) {
	if obj == nil {
		return nil, false
	}
	c.iso.mu.Lock()
	defer c.iso.mu.Unlock()

	for _, e := range c.crossContextObjects[weak.Make(obj)] {
		if e.to != to {
			continue
		}
		// a collected proxy may linger until its cleanup runs
		if proxy := e.proxy.Value(); proxy != nil && !e.revoked.Load() {
			return proxy, true
		}
	}
	return nil, false
}

// newFakeTarget creates the proxy target in c. Callable sources need a
// callable target so the proxy supports call and construct.
func (c *Context) newFakeTarget(obj *goja.Object) (*goja.Object, error) {
	if _, callable := goja.AssertFunction(obj); !callable {
		return c.vm.NewObject(), nil
	}
	return runIn(c, func() (*goja.Object, error) {
		create, err := c.CreateTargetFunction()
		if err != nil {
			return nil, err
		}
		fn, _ := goja.AssertFunction(create)
		v, err := fn(goja.Undefined())
		if err != nil {
			return nil, err
		}
		target, ok := v.(*goja.Object)
		if !ok {
			return nil, fmt.Errorf("jsrt: createTargetFunction returned %s", v)
		}
		return target, nil
	})
}

// finalizeCrossContext runs on the cleanup goroutine once a fake target
// became unreachable. The entry may already be gone.
func (iso *Isolate) finalizeCrossContext(entry *crossContextEntry) {
	iso.mu.Lock()
	removed := iso.dropEntryLocked(entry)
	iso.mu.Unlock()
	if !removed {
		return
	}
	entry.revoked.Store(true)
	iso.metrics.RecordCrossContext(monitoring.OpFinalize, -1)
	iso.log.Debug("cross-context proxy collected",
		zap.String("from", entry.from.id.String()),
		zap.String("to", entry.to.id.String()))
}

// releaseEntryLocked drops, revokes and cancels the cleanup of entry
func (iso *Isolate) releaseEntryLocked(entry *crossContextEntry) bool {
	if !iso.dropEntryLocked(entry) {
		return false
	}
	entry.revoked.Store(true)
	entry.cleanup.Stop()
	return true
}

// dropEntryLocked removes entry from both registries by identity
func (iso *Isolate) dropEntryLocked(entry *crossContextEntry) bool {
	from := entry.from
	entries := from.crossContextObjects[entry.object]
	i := slices.Index(entries, entry)
	if i < 0 {
		return false
	}
	entries = slices.Delete(entries, i, i+1)
	if len(entries) == 0 {
		delete(from.crossContextObjects, entry.object)
	} else {
		from.crossContextObjects[entry.object] = entries
	}
	if entry.to.crossContextProxies[entry.proxy] == entry {
		delete(entry.to.crossContextProxies, entry.proxy)
	}
	return true
}

// releaseCrossContext unregisters every proxy c holds and revokes every
// proxy held for c's objects. It returns the number of entries released.
func (iso *Isolate) releaseCrossContext(c *Context) int {
	iso.mu.Lock()
	var inbound, outbound []*crossContextEntry
	for _, e := range c.crossContextProxies {
		inbound = append(inbound, e)
	}
	for _, entries := range c.crossContextObjects {
		outbound = append(outbound, entries...)
	}
	for _, e := range inbound {
		iso.releaseEntryLocked(e)
	}
	for _, e := range outbound {
		iso.releaseEntryLocked(e)
	}
	iso.mu.Unlock()

	for range inbound {
		iso.metrics.RecordCrossContext(monitoring.OpUnregister, -1)
	}
	for range outbound {
		iso.metrics.RecordCrossContext(monitoring.OpRevoke, -1)
	}
	return len(inbound) + len(outbound)
}

// sourceOf returns the source object of a proxy living in c, if any
func (c *Context) sourceOf(proxy *goja.Object) (*crossContextEntry, *goja.Object) {
	c.iso.mu.Lock()
	defer c.iso.mu.Unlock()
	entry := c.crossContextProxies[weak.Make(proxy)]
	if entry == nil || entry.revoked.Load() {
		return nil, nil
	}
	return entry, entry.object.Value()
}

package jsrt

import (
	"runtime"
	"slices"
	"testing"
	"time"
	"weak"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/dop251/goja"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesFor(c *Context, obj *goja.Object) []*crossContextEntry {
	c.iso.mu.Lock()
	defer c.iso.mu.Unlock()
	return slices.Clone(c.crossContextObjects[weak.Make(obj)])
}

func TestRegisterIsIdempotent(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({ x: 1 })`)

	first, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	second, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, o, first)
	assert.True(t, b.owns(first))
	assert.Len(t, entriesFor(a, o), 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CrossContextOps.WithLabelValues(monitoring.OpRegister)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CrossContextOps.WithLabelValues(monitoring.OpHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CrossContextEntries))
	runtime.KeepAlive(first)
}

func TestDestroyingDestinationDropsEntries(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({ x: 1 })`)

	p1, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	p2, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	b.Dispose()

	_, ok := a.TryGetCrossContextObject(o, b)
	assert.False(t, ok)
	assert.Empty(t, entriesFor(a, o))
}

func TestUnregisterThenFinalizeIsNoop(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({})`)

	// proxies stay reachable so the collector cannot race the explicit calls
	proxy, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	defer runtime.KeepAlive(proxy)
	entries := entriesFor(a, o)
	require.Len(t, entries, 1)

	assert.True(t, a.UnregisterCrossContextObject(o, b))
	_, ok := a.TryGetCrossContextObject(o, b)
	assert.False(t, ok)

	assert.NotPanics(t, func() { iso.finalizeCrossContext(entries[0]) })
	assert.False(t, a.UnregisterCrossContextObject(o, b), "second unregister is a no-op")

	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CrossContextOps.WithLabelValues(monitoring.OpFinalize)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CrossContextEntries))
}

func TestSimulatedCollectionRemovesEveryDestination(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	c := newTestContext(t, iso)
	o := runObject(t, a, `({})`)

	pb, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	pc, err := a.RegisterCrossContextObject(o, c)
	require.NoError(t, err)
	assert.NotSame(t, pb, pc, "each destination holds its own proxy")
	defer runtime.KeepAlive(pc)

	entries := entriesFor(a, o)
	require.Len(t, entries, 2)
	for _, e := range entries {
		iso.finalizeCrossContext(e)
	}

	for _, to := range []*Context{b, c} {
		_, ok := a.TryGetCrossContextObject(o, to)
		assert.False(t, ok)
	}
	assert.Empty(t, b.crossContextProxies)
	assert.Empty(t, c.crossContextProxies)

	fresh, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	assert.NotSame(t, pb, fresh)
}

func TestRegisterRejectsForeignObjects(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, b, `({})`)

	_, err := a.RegisterCrossContextObject(o, b)
	assert.ErrorIs(t, err, ErrNotOwned)

	other := newTestContext(t, newTestIsolate(t))
	_, err = b.RegisterCrossContextObject(o, other)
	assert.ErrorIs(t, err, ErrForeignContext)

	same, err := b.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	assert.Same(t, o, same)
}

func TestMarshalRoundTrip(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({})`)

	inB, err := MarshalToContext(o, b)
	require.NoError(t, err)
	again, err := MarshalToContext(o, b)
	require.NoError(t, err)
	assert.Same(t, inB, again)

	back, err := MarshalToContext(inB, a)
	require.NoError(t, err)
	assert.Same(t, o, back, "proxy unwraps to its source object")

	own, err := MarshalToContext(o, a)
	require.NoError(t, err)
	assert.Same(t, o, own)

	prim := a.Runtime().ToValue("text")
	v, err := MarshalToContext(prim, b)
	require.NoError(t, err)
	assert.Equal(t, "text", v.String())

	_, err = MarshalToContext(goja.New().NewObject(), b)
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestProxyForwardsOperations(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	shared := runObject(t, a, `
		var shared = {
			n: 1,
			nested: { deep: true },
			add: function (x) { return this.n + x; },
			fail: function () { throw new Error("boom"); },
			Point: function (x) { this.x = x; }
		};
		shared`)
	peer, err := MarshalToContext(shared, b)
	require.NoError(t, err)
	require.NoError(t, b.GlobalObject().Set("peer", peer))

	assert.Equal(t, int64(1), run(t, b, `peer.n`).ToInteger())
	assert.True(t, run(t, b, `peer.nested.deep`).ToBoolean())
	assert.True(t, run(t, b, `peer.nested === peer.nested`).ToBoolean())
	assert.True(t, run(t, b, `'add' in peer`).ToBoolean())
	assert.Equal(t, "function", run(t, b, `typeof peer.add`).String())

	run(t, b, `peer.n = 5`)
	assert.Equal(t, int64(5), run(t, a, `shared.n`).ToInteger())
	assert.Equal(t, int64(7), run(t, b, `peer.add(2)`).ToInteger())
	assert.Equal(t, int64(3), run(t, b, `new peer.Point(3).x`).ToInteger())

	assert.Equal(t, "n,nested,add,fail,Point", run(t, b, `Object.keys(peer).join(",")`).String())
	assert.Equal(t, "boom", run(t, b, `try { peer.fail(); "" } catch (e) { e.message }`).String())

	run(t, b, `peer.added = { from: "b" }`)
	assert.Equal(t, "b", run(t, a, `shared.added.from`).String())

	run(t, b, `delete peer.n`)
	assert.False(t, run(t, a, `'n' in shared`).ToBoolean())
}

func TestProxyRevokedAfterSourceDisposed(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({ x: 1 })`)

	peer, err := MarshalToContext(o, b)
	require.NoError(t, err)
	require.NoError(t, b.GlobalObject().Set("peer", peer))
	assert.Equal(t, int64(1), run(t, b, `peer.x`).ToInteger())

	a.Dispose()

	assert.True(t, run(t, b, `try { peer.x; false } catch (e) { e instanceof TypeError }`).ToBoolean())
	assert.Empty(t, b.crossContextProxies)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CrossContextOps.WithLabelValues(monitoring.OpRevoke)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CrossContextEntries))
}

func TestCollectedProxyLeavesRegistry(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	o := runObject(t, a, `({ x: 1 })`)

	func() {
		proxy, err := a.RegisterCrossContextObject(o, b)
		require.NoError(t, err)
		require.NotNil(t, proxy)
	}()
	require.Len(t, entriesFor(a, o), 1)

	finalized := func() bool {
		return testutil.ToFloat64(metrics.CrossContextOps.WithLabelValues(monitoring.OpFinalize)) == 1
	}
	require.Eventually(t, func() bool {
		runtime.GC()
		return len(entriesFor(a, o)) == 0 && finalized()
	}, 5*time.Second, 10*time.Millisecond)

	_, ok := a.TryGetCrossContextObject(o, b)
	assert.False(t, ok)
	assert.Empty(t, b.crossContextProxies)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CrossContextEntries))
	runtime.KeepAlive(o)
}

func TestFakeTargetCreatedInDestinationScope(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)
	fn := runObject(t, a, `(function () { return 1; })`)

	var current *Context
	require.NoError(t, b.cache.keepAlive.Set("createTargetFunction", func(goja.FunctionCall) goja.Value {
		current = iso.CurrentContext()
		return b.Runtime().ToValue(func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	}))

	scope := a.Enter()
	proxy, err := a.RegisterCrossContextObject(fn, b)
	assert.Same(t, a, iso.CurrentContext())
	scope.Exit()

	require.NoError(t, err)
	assert.Same(t, b, current)
	require.NoError(t, b.GlobalObject().Set("peer", proxy))
	assert.Equal(t, int64(1), run(t, b, `peer()`).ToInteger())
}

func TestObjectToStringReportsSourceTag(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	shared := runObject(t, a, `({ list: [1, 2], when: new Date(0), fn: function () {}, plain: {}, tagged: { [Symbol.toStringTag]: "Custom" } })`)
	peer, err := MarshalToContext(shared, b)
	require.NoError(t, err)
	require.NoError(t, b.GlobalObject().Set("peer", peer))

	tests := []struct {
		src  string
		want string
	}{
		{src: `Object.prototype.toString.call(peer.list)`, want: "[object Array]"},
		{src: `Object.prototype.toString.call(peer.when)`, want: "[object Date]"},
		{src: `Object.prototype.toString.call(peer.fn)`, want: "[object Function]"},
		{src: `Object.prototype.toString.call(peer.plain)`, want: "[object Object]"},
		{src: `Object.prototype.toString.call(peer.tagged)`, want: "[object Custom]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, run(t, b, tt.src).String(), tt.src)
	}
}

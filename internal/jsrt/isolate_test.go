package jsrt

import (
	"encoding/json"
	"testing"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/shared/id"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextLifecycle(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))

	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	assert.True(t, id.IsValid(id.IsolatePrefix, iso.ID().String()))
	assert.True(t, id.IsValid(id.ContextPrefix, a.ID().String()))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Same(t, iso, a.Isolate())
	assert.Equal(t, []*Context{a, b}, iso.Contexts())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ContextsActive))

	a.Dispose()
	a.Dispose()
	assert.True(t, a.Disposed())
	assert.Equal(t, []*Context{b}, iso.Contexts())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ContextsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ContextsDisposed))

	iso.Dispose()
	assert.Empty(t, iso.Contexts())
	_, err := iso.NewContext(ContextOptions{})
	assert.ErrorIs(t, err, ErrIsolateDisposed)
}

func TestContextOf(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	objA := runObject(t, a, `({})`)
	objB := runObject(t, b, `[]`)

	assert.Same(t, a, iso.ContextOf(objA))
	assert.Same(t, b, iso.ContextOf(objB))
	assert.Nil(t, iso.ContextOf(a.Runtime().ToValue(1)))
	assert.Nil(t, iso.ContextOf(nil))

	b.Dispose()
	assert.Nil(t, iso.ContextOf(objB))
}

func TestIsolateStats(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	o := runObject(t, a, `({})`)
	proxy, err := a.RegisterCrossContextObject(o, b)
	require.NoError(t, err)
	a.SetEmbedderData(1, "x")

	scope := b.Enter()
	stats := iso.Stats()
	scope.Exit()

	assert.Equal(t, iso.ID().String(), stats.ID)
	assert.Equal(t, 1, stats.ScopeDepth)
	assert.Equal(t, b.ID().String(), stats.Current)
	require.Len(t, stats.Contexts, 2)

	assert.Equal(t, 1, stats.Contexts[0].CrossContextOut)
	assert.Equal(t, 1, stats.Contexts[0].EmbedderDataUsed)
	assert.Equal(t, 1, stats.Contexts[1].CrossContextIn)
	assert.True(t, stats.Contexts[0].Initialized)
	assert.Positive(t, stats.Contexts[0].CachedBuiltins)

	raw, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"cross_context_out":1`)
	assert.NotNil(t, proxy)
}

func TestIsolateDisposeWhileEntered(t *testing.T) {
	iso := NewIsolate()
	c := newTestContext(t, iso)

	scope := c.Enter()
	assert.PanicsWithValue(t, ErrContextInUse, iso.Dispose)
	scope.Exit()
	iso.Dispose()
	assert.True(t, c.Disposed())
}

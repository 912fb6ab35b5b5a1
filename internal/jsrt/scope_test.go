package jsrt

import (
	"errors"
	"testing"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeRoundTrip(t *testing.T) {
	iso := newTestIsolate(t)
	contexts := make([]*Context, 4)
	for i := range contexts {
		contexts[i] = newTestContext(t, iso)
	}

	for n := 0; n <= len(contexts); n++ {
		before := iso.CurrentContext()
		scopes := make([]*Scope, 0, n)
		for i := 0; i < n; i++ {
			scopes = append(scopes, contexts[i].Enter())
			assert.Same(t, contexts[i], iso.CurrentContext())
		}
		for i := n - 1; i >= 0; i-- {
			scopes[i].Exit()
		}
		assert.Equal(t, before, iso.CurrentContext(), "n=%d", n)
	}
	assert.Nil(t, iso.CurrentContext())
}

func TestScopeRoundTripFromOuterContext(t *testing.T) {
	iso := newTestIsolate(t)
	outer := newTestContext(t, iso)
	inner := newTestContext(t, iso)

	scope := outer.Enter()
	defer scope.Exit()

	nested := inner.Enter()
	assert.Same(t, inner, iso.CurrentContext())
	nested.Exit()
	assert.Same(t, outer, iso.CurrentContext())
}

func TestReentrantScope(t *testing.T) {
	iso := newTestIsolate(t)
	c := newTestContext(t, iso)

	first := c.Enter()
	second := c.Enter()
	assert.Same(t, c, iso.CurrentContext())
	assert.Equal(t, 2, iso.depth)

	second.Exit()
	assert.Same(t, c, iso.CurrentContext())
	assert.Equal(t, 1, iso.depth)

	first.Exit()
	assert.Nil(t, iso.CurrentContext())
	assert.Equal(t, 0, iso.depth)
}

func TestScopeRestoredOnFailure(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	scope := a.Enter()
	defer scope.Exit()

	failing := func() (err error) {
		s := b.Enter()
		defer s.Exit()
		return errors.New("scoped work failed")
	}
	require.Error(t, failing())
	assert.Same(t, a, iso.CurrentContext())

	assert.Panics(t, func() {
		s := b.Enter()
		defer s.Exit()
		panic("scoped work panicked")
	})
	assert.Same(t, a, iso.CurrentContext())
}

func TestScopeMisuse(t *testing.T) {
	iso := newTestIsolate(t)
	a := newTestContext(t, iso)
	b := newTestContext(t, iso)

	t.Run("out of order", func(t *testing.T) {
		outer := a.Enter()
		inner := b.Enter()
		assert.PanicsWithValue(t, ErrScopeOrder, outer.Exit)
		inner.Exit()
		outer.Exit()
	})

	t.Run("twice", func(t *testing.T) {
		s := a.Enter()
		s.Exit()
		assert.PanicsWithValue(t, ErrScopeOrder, s.Exit)
	})

	t.Run("disposed", func(t *testing.T) {
		c := newTestContext(t, iso)
		c.Dispose()
		assert.PanicsWithValue(t, ErrContextDisposed, func() { c.Enter() })
	})

	t.Run("dispose while entered", func(t *testing.T) {
		s := a.Enter()
		assert.PanicsWithValue(t, ErrContextInUse, a.Dispose)
		s.Exit()
	})

	assert.Nil(t, iso.CurrentContext())
}

func TestScopeDepthMetric(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	iso := newTestIsolate(t, WithMetrics(metrics))
	c := newTestContext(t, iso)

	s1 := c.Enter()
	s2 := c.Enter()
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ScopeDepth))
	s2.Exit()
	s1.Exit()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ScopeDepth))
}

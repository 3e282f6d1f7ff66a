package intersection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/go-drift/intersect/pkg/errors"
	"github.com/go-drift/intersect/pkg/observer"
	"github.com/go-drift/intersect/pkg/registry"
	intersecttest "github.com/go-drift/intersect/pkg/testing"
)

type mockPool struct {
	mock.Mock
}

func (m *mockPool) Observe(target observer.Element, sub registry.Subscriber, opts observer.Options) (*registry.Resource, error) {
	args := m.Called(target, sub, opts)
	res, _ := args.Get(0).(*registry.Resource)
	return res, args.Error(1)
}

func (m *mockPool) Unobserve(target observer.Element, res *registry.Resource) {
	m.Called(target, res)
}

// lifecycleLogs captures the debug records every observe and unobserve emits.
func lifecycleLogs(t *testing.T) *zapobserver.ObservedLogs {
	t.Helper()
	zcore, logs := zapobserver.New(zapcore.DebugLevel)
	SetLogger(zap.New(zcore))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func calls(logs *zapobserver.ObservedLogs, msg string) int {
	return logs.FilterMessage(msg).Len()
}

func TestSubscription_MountObserves(t *testing.T) {
	logs := lifecycleLogs(t)
	reg := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(reg, Props{Threshold: observer.Thresholds(1, 0)})

	require.NoError(t, sub.Mount("a"))

	assert.Equal(t, PhaseObserving, sub.Phase())
	assert.Equal(t, 1, calls(logs, "observe"))
	assert.Same(t, sub, reg.FindSubscriber("a", sub.Resource()))
	assert.Equal(t, sub.Resource().Handle(), sub.Handle())
	assert.Equal(t, []float64{0, 1}, sub.Resource().Options().Threshold)
}

func TestSubscription_MountWithoutTarget(t *testing.T) {
	sub := NewSubscription(registry.New(intersecttest.NewFakeNative(nil)), Props{})
	err := sub.Mount(nil)
	assert.Equal(t, errors.KindTarget, errors.KindOf(err))
	assert.Equal(t, PhaseUnmounted, sub.Phase())
}

func TestSubscription_MountDisabledStaysIdle(t *testing.T) {
	logs := lifecycleLogs(t)
	pool := &mockPool{}
	sub := NewSubscription(pool, Props{Disabled: true})

	require.NoError(t, sub.Mount("a"))

	assert.Equal(t, PhaseIdle, sub.Phase())
	assert.Zero(t, calls(logs, "observe"))
	pool.AssertNotCalled(t, "Observe", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscription_ObserveFailureLeavesIdle(t *testing.T) {
	pool := &mockPool{}
	cfgErr := &errors.ConfigurationError{Field: "threshold", Value: 2.0, Reason: "out of range"}
	pool.On("Observe", "a", mock.Anything, mock.Anything).Return(nil, cfgErr)
	sub := NewSubscription(pool, Props{Threshold: observer.Thresholds(2)})

	err := sub.Mount("a")

	assert.ErrorIs(t, err, cfgErr)
	assert.Equal(t, PhaseIdle, sub.Phase())
	assert.Nil(t, sub.Handle())
}

func TestSubscription_NoRegistry(t *testing.T) {
	prev := registry.Default()
	registry.SetDefault(nil)
	t.Cleanup(func() { registry.SetDefault(prev) })

	sub := NewSubscription(nil, Props{})
	assert.ErrorIs(t, sub.Mount("a"), ErrNoRegistry)
}

func TestSubscription_UsesDefaultRegistry(t *testing.T) {
	prev := registry.Default()
	reg := registry.New(intersecttest.NewFakeNative(nil))
	registry.SetDefault(reg)
	t.Cleanup(func() { registry.SetDefault(prev) })

	sub := NewSubscription(nil, Props{})
	require.NoError(t, sub.Mount("a"))
	assert.Equal(t, 1, reg.Count())
}

func TestSubscription_UnobserveIsIdempotent(t *testing.T) {
	logs := lifecycleLogs(t)
	pool := &mockPool{}
	res := &registry.Resource{}
	pool.On("Observe", "a", mock.Anything, mock.Anything).Return(res, nil)
	pool.On("Unobserve", "a", res).Once()
	sub := NewSubscription(pool, Props{})
	require.NoError(t, sub.Mount("a"))

	sub.Unobserve()
	sub.Unobserve()

	assert.Equal(t, 2, calls(logs, "unobserve"))
	assert.Equal(t, PhaseIdle, sub.Phase())
	pool.AssertExpectations(t)
}

func TestSubscription_WillUpdateOnlyResetsOnConfiguration(t *testing.T) {
	base := Props{RootMargin: "10px", Threshold: observer.Thresholds(0, 0.5)}
	root := &struct{ id int }{1}

	tests := []struct {
		name string
		next Props
		want bool
	}{
		{"callback", Props{RootMargin: "10px", Threshold: observer.Thresholds(0, 0.5), OnChange: func(observer.Entry, observer.Handle) {}}, false},
		{"flags", Props{RootMargin: "10px", Threshold: observer.Thresholds(0, 0.5), Disabled: true, OnlyOnce: true}, false},
		{"threshold order", Props{RootMargin: "10px", Threshold: observer.Thresholds(0.5, 0, 0.5)}, false},
		{"threshold", Props{RootMargin: "10px", Threshold: observer.Thresholds(0, 1)}, true},
		{"root margin", Props{RootMargin: "20px", Threshold: observer.Thresholds(0, 0.5)}, true},
		{"root", Props{Root: root, RootMargin: "10px", Threshold: observer.Thresholds(0, 0.5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := NewSubscription(&mockPool{}, base)
			sub.WillUpdate(tt.next)
			assert.Equal(t, tt.want, sub.ShouldResetObserver())
		})
	}
}

func TestSubscription_ReobserveOnConfigurationChange(t *testing.T) {
	logs := lifecycleLogs(t)
	native := intersecttest.NewFakeNative(nil)
	reg := registry.New(native)
	sub := NewSubscription(reg, Props{})
	require.NoError(t, sub.Mount("a"))
	first := sub.Resource()
	logs.TakeAll()

	require.NoError(t, sub.Update(Props{RootMargin: "5%"}, "a"))

	assert.Equal(t, 1, calls(logs, "unobserve"))
	assert.Equal(t, 1, calls(logs, "observe"))
	assert.NotSame(t, first, sub.Resource())
	assert.Nil(t, reg.FindSubscriber("a", first))
	assert.False(t, native.Handles()[0].IsObserving("a"))
	assert.True(t, native.Handles()[1].IsObserving("a"))
}

func TestSubscription_RetargetMovesRegistration(t *testing.T) {
	logs := lifecycleLogs(t)
	native := intersecttest.NewFakeNative(nil)
	reg := registry.New(native)
	sub := NewSubscription(reg, Props{})
	require.NoError(t, sub.Mount("a"))
	logs.TakeAll()

	require.NoError(t, sub.Update(Props{}, "b"))

	assert.Equal(t, 1, calls(logs, "unobserve"))
	assert.Equal(t, 1, calls(logs, "observe"))
	assert.Equal(t, "b", sub.Target())
	assert.Nil(t, reg.FindSubscriber("a", sub.Resource()))
	assert.Equal(t, []observer.Element{"b"}, native.Handles()[0].Observed())
}

func TestSubscription_DisabledToggles(t *testing.T) {
	logs := lifecycleLogs(t)
	reg := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(reg, Props{Disabled: true})
	require.NoError(t, sub.Mount("a"))
	assert.Zero(t, calls(logs, "observe"))

	require.NoError(t, sub.Update(Props{}, "a"))
	assert.Equal(t, 1, calls(logs, "observe"))
	assert.Equal(t, PhaseObserving, sub.Phase())
	logs.TakeAll()

	require.NoError(t, sub.Update(Props{Disabled: true}, "a"))
	assert.Equal(t, 1, calls(logs, "unobserve"))
	assert.Zero(t, calls(logs, "observe"))
	assert.Equal(t, PhaseIdle, sub.Phase())

	// Configuration changes while disabled do not observe.
	require.NoError(t, sub.Update(Props{Disabled: true, RootMargin: "3px"}, "b"))
	assert.Zero(t, calls(logs, "observe"))
}

func TestSubscription_RebuildWithoutUpdateDoesNothing(t *testing.T) {
	logs := lifecycleLogs(t)
	sub := NewSubscription(registry.New(intersecttest.NewFakeNative(nil)), Props{})
	require.NoError(t, sub.Mount("a"))
	sub.WillUpdate(Props{RootMargin: "1px"})
	require.NoError(t, sub.DidUpdate(Props{}, "a"))
	logs.TakeAll()

	// A second commit without WillUpdate keeps the registration.
	require.NoError(t, sub.DidUpdate(sub.Props(), "a"))
	assert.Zero(t, logs.Len())
}

func TestSubscription_HandleChange(t *testing.T) {
	t.Run("forwards entry and handle", func(t *testing.T) {
		var got observer.Entry
		var gotHandle observer.Handle
		sub := NewSubscription(&mockPool{}, Props{OnChange: func(e observer.Entry, h observer.Handle) {
			got, gotHandle = e, h
		}})
		h := &intersecttest.FakeHandle{}
		require.NoError(t, sub.HandleChange(intersecttest.Entry("a", 0.5), h))
		assert.Equal(t, 0.5, got.IntersectionRatio)
		assert.Same(t, h, gotHandle)
	})

	t.Run("only once requires intersecting indicator", func(t *testing.T) {
		called := false
		sub := NewSubscription(&mockPool{}, Props{OnlyOnce: true, OnChange: func(observer.Entry, observer.Handle) {
			called = true
		}})
		err := sub.HandleChange(observer.Entry{Target: "a", IntersectionRatio: 1}, nil)
		var shape *errors.EntryShapeError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "a", shape.Target)
		assert.False(t, called)
	})

	t.Run("missing indicator is fine without only once", func(t *testing.T) {
		called := false
		sub := NewSubscription(&mockPool{}, Props{OnChange: func(observer.Entry, observer.Handle) {
			called = true
		}})
		require.NoError(t, sub.HandleChange(observer.Entry{Target: "a"}, nil))
		assert.True(t, called)
	})
}

func TestSubscription_UnmountReleases(t *testing.T) {
	reg := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(reg, Props{})
	require.NoError(t, sub.Mount("a"))
	res := sub.Resource()

	sub.Unmount()

	assert.Nil(t, reg.FindSubscriber("a", res))
	assert.Equal(t, PhaseUnmounted, sub.Phase())
	assert.Nil(t, sub.Target())
	assert.Equal(t, "unmounted", sub.Phase().String())
}

func TestSubscription_SetPoolReobservesOnUpdate(t *testing.T) {
	logs := lifecycleLogs(t)
	r1 := registry.New(intersecttest.NewFakeNative(nil))
	r2 := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(r1, Props{})
	require.NoError(t, sub.Mount("a"))
	first := sub.Resource()
	logs.TakeAll()

	sub.SetPool(r2)
	require.NoError(t, sub.Update(Props{}, "a"))

	assert.Equal(t, 1, calls(logs, "unobserve"))
	assert.Equal(t, 1, calls(logs, "observe"))
	assert.Nil(t, r1.FindSubscriber("a", first))
	assert.Same(t, sub, r2.FindSubscriber("a", sub.Resource()))
}

func TestSubscription_SetPoolWhileDisabled(t *testing.T) {
	r1 := registry.New(intersecttest.NewFakeNative(nil))
	r2 := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(r1, Props{Disabled: true})
	require.NoError(t, sub.Mount("a"))

	sub.SetPool(r2)
	require.NoError(t, sub.Update(Props{Disabled: true}, "a"))
	assert.Zero(t, r1.Count())
	assert.Zero(t, r2.Count())

	require.NoError(t, sub.Update(Props{}, "a"))
	assert.Zero(t, r1.Count())
	assert.Equal(t, 1, r2.Count())
}

func TestSubscription_MountNonComparableTarget(t *testing.T) {
	reg := registry.New(intersecttest.NewFakeNative(nil))
	sub := NewSubscription(reg, Props{})

	err := sub.Mount([]string{"a"})

	assert.Equal(t, errors.KindTarget, errors.KindOf(err))
	assert.Equal(t, PhaseIdle, sub.Phase())
	assert.Zero(t, reg.Count())
}

func TestLogger_FallsBackToRegistryLogger(t *testing.T) {
	zcore, logs := zapobserver.New(zapcore.DebugLevel)
	registry.SetLogger(zap.New(zcore))
	t.Cleanup(func() { registry.SetLogger(nil) })

	sub := NewSubscription(registry.New(intersecttest.NewFakeNative(nil)), Props{})
	require.NoError(t, sub.Mount("a"))

	observed := logs.FilterMessage("observe").All()
	require.Len(t, observed, 1)
	assert.Equal(t, "intersection", observed[0].LoggerName)
	assert.Equal(t, 1, logs.FilterMessage("pooled resource created").Len())
}

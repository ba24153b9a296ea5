package reactive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSuccess[T any](t *testing.T, a *AsyncController[T]) {
	t.Helper()
	require.Eventually(t, func() bool { return a.State().IsSuccess() }, time.Second, 2*time.Millisecond)
}

func TestAsync_LifecycleToSuccess(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 7, nil },
		WithKey("load"),
	)
	require.NoError(t, err)

	waitSuccess(t, ctrl)

	data, err := ctrl.State().Data()
	require.NoError(t, err)
	assert.Equal(t, 7, data)
	assert.True(t, ctrl.HasInitializedListenerExecution())
}

func TestAsync_ManualLoadStaysInitial(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 7, nil },
		WithKey("manual"), WithManualLoad(),
	)
	require.NoError(t, err)

	assert.True(t, ctrl.State().IsInitial())
	assert.False(t, ctrl.HasInitializedListenerExecution())

	ctrl.Reload(context.Background())
	waitSuccess(t, ctrl)
}

func TestAsync_InitErrorBecomesErrorState(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	boom := errors.New("backend down")
	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 0, boom },
		WithKey("failing"),
	)
	require.NoError(t, err, "init failure never propagates to the constructor")

	require.Eventually(t, func() bool { return ctrl.State().IsError() }, time.Second, 2*time.Millisecond)

	state := ctrl.State()
	assert.True(t, state.Err() == boom)
	assert.NotEmpty(t, state.Stack())
}

func TestAsync_ErrorRoundTrip(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 1, nil },
		WithKey("roundtrip"), WithManualLoad(),
	)
	require.NoError(t, err)

	boom := errors.New("boom")
	ctrl.ErrorState(boom)

	_, err = ctrl.State().Data()
	require.Error(t, err)
	assert.True(t, err == boom, "the data accessor re-surfaces the exact stored error")
}

func TestAsync_InitPanicIsCaptured(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { panic("unexpected") },
		WithKey("panicky"),
	)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ctrl.State().IsError() }, time.Second, 2*time.Millisecond)
	assert.Contains(t, ctrl.State().Err().Error(), "unexpected")
}

func TestAsync_ReloadConcurrencyGuard(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	release := make(chan struct{})
	var initCalls atomic.Int32

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) {
			initCalls.Add(1)
			<-release
			return 7, nil
		},
		WithKey("guarded"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.Reload(context.Background())
	ctrl.Reload(context.Background()) // dropped, not queued
	ctrl.Reload(context.Background()) // dropped, not queued

	close(release)
	waitSuccess(t, ctrl)

	assert.Equal(t, int32(1), initCalls.Load())
}

func TestAsync_ReloadRoutesThroughLoading(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	release := make(chan struct{})
	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		},
		WithKey("loading"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.Reload(context.Background())
	assert.True(t, ctrl.State().IsLoading())
	assert.True(t, ctrl.InFlight())

	close(release)
	waitSuccess(t, ctrl)
	assert.False(t, ctrl.InFlight())
}

func TestAsync_TransformDataState(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 10, nil },
		WithKey("transform"),
	)
	require.NoError(t, err)
	waitSuccess(t, ctrl)

	calls := 0
	ctrl.AddObserver(func(AsyncState[int]) { calls++ })

	ctrl.TransformDataState(func(v int) (int, bool) { return v + 1, true })
	assert.Equal(t, 11, ctrl.State().DataOrZero())
	assert.Equal(t, 1, calls)

	// ok=false means no-op, not clear
	ctrl.TransformDataState(func(v int) (int, bool) { return 0, false })
	assert.Equal(t, 11, ctrl.State().DataOrZero())
	assert.Equal(t, 1, calls)

	ctrl.TransformDataStateSilently(func(v int) (int, bool) { return v * 2, true })
	assert.Equal(t, 22, ctrl.State().DataOrZero())
	assert.Equal(t, 1, calls)
}

func TestAsync_TransformDataRequiresData(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 1, nil },
		WithKey("nodata"), WithManualLoad(),
	)
	require.NoError(t, err)

	applied := false
	ctrl.TransformDataState(func(v int) (int, bool) {
		applied = true
		return v, true
	})
	assert.False(t, applied)
	assert.True(t, ctrl.State().IsInitial())
}

func TestAsync_TransformStateSilentlyCrossesStates(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 1, nil },
		WithKey("crossing"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.ErrorState(errors.New("bad"))

	calls := 0
	ctrl.AddObserver(func(AsyncState[int]) { calls++ })

	// Error -> Success without the Loading gate, silently
	ctrl.TransformStateSilently(func(s AsyncState[int]) AsyncState[int] {
		return Success(99)
	})

	assert.True(t, ctrl.State().IsSuccess())
	assert.Equal(t, 99, ctrl.State().DataOrZero())
	assert.Equal(t, 0, calls)
}

func TestAsync_LateSettleAfterDisposeIsDropped(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	release := make(chan struct{})
	done := make(chan struct{})
	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) {
			defer close(done)
			<-release
			return 1, nil
		},
		WithKey("late"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.Reload(context.Background())
	ctrl.Dispose()

	close(release)
	<-done
	require.Eventually(t, func() bool { return !ctrl.InFlight() }, time.Second, 2*time.Millisecond)

	// the settle found its owner gone and was dropped
	assert.True(t, ctrl.Disposed())
	assert.False(t, IsActive[AsyncState[int]](reg, "late"))
}

func TestAsync_SettleNeverResurrectsDisposedCell(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 1, nil },
		WithKey("torn"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.Dispose()

	// a settle arriving after disposal finds the cell closed, it must not
	// take the resurrection path a plain value read would
	applied := ctrl.cell.settle(Success(5), OpAsyncSuccess)
	assert.False(t, applied)
	assert.True(t, ctrl.Disposed())
	assert.False(t, IsActive[AsyncState[int]](reg, "torn"))
}

func TestAsync_ErrorStatePreemptsPendingInit(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	release := make(chan struct{})
	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		},
		WithKey("preempt"), WithManualLoad(),
	)
	require.NoError(t, err)

	ctrl.Reload(context.Background())
	ctrl.ErrorState(errors.New("manual override"))
	require.True(t, ctrl.State().IsError())

	// the pending init settles later and wins, last writer semantics
	close(release)
	waitSuccess(t, ctrl)
	assert.Equal(t, 1, ctrl.State().DataOrZero())
}

func TestAsync_FirstSettleHookRunsOnce(t *testing.T) {
	reg := NewRegistry()
	defer reg.Cleanup()

	ctrl, err := CreateAsyncController(reg,
		func(ctx context.Context) (int, error) { return 1, nil },
		WithKey("settle"), WithManualLoad(),
	)
	require.NoError(t, err)

	settles := 0
	ctrl.SetOnFirstSettle(func() { settles++ })

	ctrl.Reload(context.Background())
	waitSuccess(t, ctrl)
	require.Equal(t, 1, settles)

	ctrl.Reload(context.Background())
	require.Eventually(t, func() bool { return !ctrl.InFlight() }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, settles, "listener wiring happens once, not per reload")
}

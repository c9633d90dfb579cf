package querycache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_LoadsKey(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32

	obs := Observe[string](ctx, h.g, QueryOptions{})
	defer obs.Close()
	assert.Equal(t, StatusIdle, obs.Current().Status)

	obs.SetKey(Keys.Courses.Detail("go"), counter(&calls, "go"))
	r := obs.Wait(ctx)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "go", r.Data)
	assert.True(t, obs.Key().Equal(Keys.Courses.Detail("go")))

	// Same key again is a no-op
	obs.SetKey(Keys.Courses.Detail("go"), counter(&calls, "go"))
	obs.Wait(ctx)
	assert.EqualValues(t, 1, calls)
}

func TestObserver_KeepPreviousData(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32

	obs := Observe[string](ctx, h.g, QueryOptions{KeepPreviousData: true})
	defer obs.Close()

	obs.SetKey(Keys.Courses.List(Params{"page": 0}), counter(&calls, "page 0"))
	obs.Wait(ctx)

	release := make(chan struct{})
	obs.SetKey(Keys.Courses.List(Params{"page": 1}), func(context.Context) (string, error) {
		<-release
		return "page 1", nil
	})

	placeholder := obs.Current()
	assert.Equal(t, StatusSuccess, placeholder.Status)
	assert.True(t, placeholder.IsPlaceholder)
	assert.Equal(t, "page 0", placeholder.Data)

	close(release)
	r := obs.Wait(ctx)
	assert.False(t, r.IsPlaceholder)
	assert.Equal(t, "page 1", r.Data)
}

func TestObserver_WithoutKeepPreviousDataShowsLoading(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32

	obs := Observe[string](ctx, h.g, QueryOptions{})
	defer obs.Close()

	obs.SetKey(Keys.Courses.List(Params{"page": 0}), counter(&calls, "page 0"))
	obs.Wait(ctx)

	release := make(chan struct{})
	obs.SetKey(Keys.Courses.List(Params{"page": 1}), func(context.Context) (string, error) {
		<-release
		return "page 1", nil
	})

	r := obs.Current()
	assert.Equal(t, StatusLoading, r.Status)
	assert.False(t, r.HasData)

	close(release)
	assert.Equal(t, "page 1", obs.Wait(ctx).Data)
}

func TestObserver_RefetchesOnInvalidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32
	version := atomic.Value{}
	version.Store("v1")

	obs := Observe[string](ctx, h.g, QueryOptions{})
	defer obs.Close()
	obs.SetKey(Keys.Courses.List(nil), func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return version.Load().(string), nil
	})
	require.Equal(t, "v1", obs.Wait(ctx).Data)

	version.Store("v2")
	h.g.Invalidate(ctx, Keys.Courses.All())

	require.Eventually(t, func() bool { return obs.Current().Data == "v2" }, time.Second, time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestObserver_SetDataPropagates(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32

	obs := Observe[string](ctx, h.g, QueryOptions{})
	defer obs.Close()
	obs.SetKey(Keys.Auth.Profile(), counter(&calls, "Ann"))
	obs.Wait(ctx)

	SetData(h.g, Keys.Auth.Profile(), "Ann Lee")
	require.Eventually(t, func() bool { return obs.Current().Data == "Ann Lee" }, time.Second, time.Millisecond)
	assert.EqualValues(t, 1, calls)
}

func TestObserver_EnabledGate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	var calls int32
	var enabled atomic.Bool

	obs := Observe[string](ctx, h.g, QueryOptions{Enabled: enabled.Load})
	defer obs.Close()

	obs.SetKey(Keys.Auth.Profile(), counter(&calls, "Ann"))
	assert.Equal(t, StatusIdle, obs.Wait(ctx).Status)
	assert.Zero(t, calls)

	enabled.Store(true)
	r := obs.Refetch(ctx)
	assert.Equal(t, StatusSuccess, r.Status)
	assert.EqualValues(t, 1, calls)

	enabled.Store(false)
	h.g.Clear()
	require.Eventually(t, func() bool { return obs.Current().Status == StatusIdle }, time.Second, time.Millisecond)
	assert.EqualValues(t, 1, calls)
}

func TestObserver_CloseDiscardsLateResults(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	release := make(chan struct{})

	obs := Observe[string](ctx, h.g, QueryOptions{})
	obs.SetKey(Keys.Courses.Detail("go"), func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	obs.Close()
	obs.Close()
	close(release)

	obs.Wait(ctx)
	r := obs.Current()
	assert.Equal(t, StatusLoading, r.Status)
	assert.False(t, r.HasData)

	// The flight itself still completes and fills the cache
	require.Eventually(t, func() bool {
		_, ok := GetData[string](h.g, Keys.Courses.Detail("go"))
		return ok
	}, time.Second, time.Millisecond)
}

func TestObserver_WaitHonoursContext(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	defer close(release)

	obs := Observe[string](context.Background(), h.g, QueryOptions{})
	defer obs.Close()
	obs.SetKey(Keys.Courses.Detail("slow"), func(context.Context) (string, error) {
		<-release
		return "slow", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	r := obs.Wait(ctx)
	assert.Equal(t, StatusLoading, r.Status)
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
}

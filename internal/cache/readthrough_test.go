package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newReadThrough() *ReadThrough {
	return NewReadThrough(NewLRUCache[any](100, time.Hour))
}

func TestLoadCachesPerUser(t *testing.T) {
	rt := newReadThrough()
	ctx := context.Background()
	var calls int

	load := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls++
			return v, nil
		}
	}

	got, err := Load(ctx, rt, "u1", "summary", load("one"))
	if err != nil || got != "one" {
		t.Fatalf("first load = %q, %v", got, err)
	}
	got, _ = Load(ctx, rt, "u1", "summary", load("ignored"))
	if got != "one" || calls != 1 {
		t.Fatalf("expected cached value, got %q after %d calls", got, calls)
	}
	got, _ = Load(ctx, rt, "u2", "summary", load("two"))
	if got != "two" || calls != 2 {
		t.Fatalf("other user must not share entries, got %q", got)
	}
}

func TestInvalidateDropsOnlyThatUser(t *testing.T) {
	rt := newReadThrough()
	ctx := context.Background()
	val := func(v int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return v, nil }
	}

	Load(ctx, rt, "u1", "a", val(1))
	Load(ctx, rt, "u2", "a", val(2))

	if n := rt.Invalidate("u1"); n != 1 {
		t.Errorf("Invalidate removed %d entries, want 1", n)
	}
	got, _ := Load(ctx, rt, "u1", "a", val(10))
	if got != 10 {
		t.Errorf("u1 after invalidate = %d, want fresh 10", got)
	}
	got, _ = Load(ctx, rt, "u2", "a", val(20))
	if got != 2 {
		t.Errorf("u2 = %d, want cached 2", got)
	}
}

func TestLoadErrorsAreNotCached(t *testing.T) {
	rt := newReadThrough()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Load(ctx, rt, "u1", "k", func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	got, err := Load(ctx, rt, "u1", "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("retry = %d, %v", got, err)
	}
}

func TestLoadStartedBeforeInvalidateIsNotStored(t *testing.T) {
	rt := newReadThrough()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)
	go func() {
		v, _ := Load(ctx, rt, "u1", "k", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()

	<-started
	rt.Invalidate("u1")
	close(release)
	if v := <-done; v != 1 {
		t.Fatalf("in-flight load returned %d", v)
	}

	got, _ := Load(ctx, rt, "u1", "k", func(context.Context) (int, error) { return 2, nil })
	if got != 2 {
		t.Errorf("stale value survived invalidation: got %d", got)
	}
}

func TestConcurrentLoadsShareOneCall(t *testing.T) {
	rt := newReadThrough()
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Load(ctx, rt, "u1", "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected call count %d", n)
	}
	if _, ok := rt.Store().Get("u1|k"); !ok {
		t.Error("result should be cached")
	}
}

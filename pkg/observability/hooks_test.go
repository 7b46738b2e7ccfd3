package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnStippleStart(ctx, 0, 5000)
	p.OnStippleComplete(ctx, 0, 5000, time.Second, nil)
	p.OnRenderStart(ctx, 4)
	p.OnRenderComplete(ctx, 4, time.Second, nil)

	s := NoopSolveHooks{}
	s.OnSolveStart(ctx, SolveInfo{Method: "local", Points: 10})
	s.OnSolveComplete(ctx, SolveInfo{Method: "remote", Channel: 2}, nil)
	s.OnTransition(ctx, 1, "unscheduled", "submitted")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "stipple")
	c.OnCacheMiss(ctx, "stipple")
	c.OnCacheSet(ctx, "stipple", 1024)

	r := NoopRPCHooks{}
	r.OnCall(ctx, "submitJob")
	r.OnResult(ctx, "submitJob", time.Second)
	r.OnError(ctx, "ping", nil)
}

type testSolveHooks struct {
	NoopSolveHooks
	transitions int
}

func (h *testSolveHooks) OnTransition(context.Context, int, string, string) { h.transitions++ }

type testCacheHooks struct{ NoopCacheHooks }

type testRPCHooks struct{ NoopRPCHooks }

type testPipelineHooks struct{ NoopPipelineHooks }

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Solve().(NoopSolveHooks); !ok {
		t.Error("Solve() should return NoopSolveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := RPC().(NoopRPCHooks); !ok {
		t.Error("RPC() should return NoopRPCHooks by default")
	}

	sh := &testSolveHooks{}
	SetSolveHooks(sh)
	Solve().OnTransition(context.Background(), 0, "a", "b")
	if sh.transitions != 1 {
		t.Errorf("transitions = %d, want 1", sh.transitions)
	}

	ph := &testPipelineHooks{}
	SetPipelineHooks(ph)
	if Pipeline() != ph {
		t.Error("SetPipelineHooks should set custom hooks")
	}
	ch := &testCacheHooks{}
	SetCacheHooks(ch)
	if Cache() != ch {
		t.Error("SetCacheHooks should set custom hooks")
	}
	rh := &testRPCHooks{}
	SetRPCHooks(rh)
	if RPC() != rh {
		t.Error("SetRPCHooks should set custom hooks")
	}

	// nil leaves the current hooks in place
	SetRPCHooks(nil)
	if RPC() != rh {
		t.Error("SetRPCHooks(nil) should not replace hooks")
	}

	Reset()
	if _, ok := Solve().(NoopSolveHooks); !ok {
		t.Error("Reset() should restore NoopSolveHooks")
	}
}

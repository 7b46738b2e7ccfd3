// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. A binary that wants metrics registers its own implementations at
// startup, so no package in this module depends on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolveHooks(&mySolveHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStippleStart(ctx, channel, points)
//	// ... stipple ...
//	observability.Pipeline().OnStippleComplete(ctx, channel, points, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the stipple and render stages.
type PipelineHooks interface {
	OnStippleStart(ctx context.Context, channel, points int)
	OnStippleComplete(ctx context.Context, channel, points int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, channels int)
	OnRenderComplete(ctx context.Context, channels int, duration time.Duration, err error)
}

// =============================================================================
// Solve Hooks
// =============================================================================

// SolveInfo describes one tour resolution.
type SolveInfo struct {
	Method  string // "local" or "remote"
	Channel int    // -1 when not tied to a channel
	Points  int
}

// SolveHooks receives events from local and remote tour resolution.
type SolveHooks interface {
	OnSolveStart(ctx context.Context, info SolveInfo)
	OnSolveComplete(ctx context.Context, info SolveInfo, err error)

	// OnTransition records a channel job state change.
	OnTransition(ctx context.Context, channel int, from, to string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// RPC Hooks
// =============================================================================

// RPCHooks receives events from remote service calls.
type RPCHooks interface {
	// OnCall records an outgoing call.
	OnCall(ctx context.Context, method string)

	// OnResult records a completed call.
	OnResult(ctx context.Context, method string, duration time.Duration)

	// OnError records a failed call (network failure, fault response).
	OnError(ctx context.Context, method string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStippleStart(context.Context, int, int) {}
func (NoopPipelineHooks) OnStippleComplete(context.Context, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, int, time.Duration, error) {}

// NoopSolveHooks is a no-op implementation of SolveHooks.
type NoopSolveHooks struct{}

func (NoopSolveHooks) OnSolveStart(context.Context, SolveInfo)           {}
func (NoopSolveHooks) OnSolveComplete(context.Context, SolveInfo, error) {}
func (NoopSolveHooks) OnTransition(context.Context, int, string, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRPCHooks is a no-op implementation of RPCHooks.
type NoopRPCHooks struct{}

func (NoopRPCHooks) OnCall(context.Context, string)                  {}
func (NoopRPCHooks) OnResult(context.Context, string, time.Duration) {}
func (NoopRPCHooks) OnError(context.Context, string, error)          {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	solveHooks    SolveHooks    = NoopSolveHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	rpcHooks      RPCHooks      = NoopRPCHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetSolveHooks registers custom solve hooks.
func SetSolveHooks(h SolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRPCHooks registers custom RPC hooks.
func SetRPCHooks(h RPCHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		rpcHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Solve returns the registered solve hooks.
func Solve() SolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// RPC returns the registered RPC hooks.
func RPC() RPCHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return rpcHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	solveHooks = NoopSolveHooks{}
	cacheHooks = NoopCacheHooks{}
	rpcHooks = NoopRPCHooks{}
}

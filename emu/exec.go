// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// coreDispatcher is the structural interface for core operations.
// DispatchCore is non-blocking: it returns iox.ErrWouldBlock when the
// host has not yet made the progress the operation waits for.
type coreDispatcher interface {
	DispatchCore(c *coreContext) (kont.Resumed, error)
}

// coreHandler handles both core and error effects.
// Every core op is a halt point: once the device halts it aborts with
// ErrHalted, and ops that wait on ErrWouldBlock via iox.Backoff recheck the
// flag between waits. Error ops short-circuit on Throw.
type coreHandler[R any] struct {
	ctx    *coreContext
	errCtx *kont.ErrorContext[error]
}

// Dispatch implements kont.Handler for the composed Core+Error handler.
// Dispatch order: Core → Error.
func (h coreHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if cop, ok := op.(coreDispatcher); ok {
		if h.ctx.dev.halted() {
			return kont.Left[error, R](ErrHalted), false
		}
		v, err := dispatchWait(h.ctx, cop)
		if err != nil {
			return kont.Left[error, R](err), false
		}
		return v, true
	}
	if eop, ok := op.(interface {
		DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
	}); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Left[error, R](h.errCtx.Err), false
		}
		return v, true
	}
	panic("emu: unhandled effect in coreHandler")
}

// dispatchWait retries DispatchCore with iox.Backoff until it succeeds or
// the device halts.
func dispatchWait(c *coreContext, op coreDispatcher) (kont.Resumed, error) {
	var bo iox.Backoff
	for {
		v, err := op.DispatchCore(c)
		if err == nil {
			return v, nil
		}
		if !iox.IsWouldBlock(err) {
			return nil, err
		}
		if c.dev.halted() {
			return nil, ErrHalted
		}
		bo.Wait()
	}
}

// execCore runs a core protocol with error handling on c.
// Returns Right on completion, Left on Throw or halt.
func execCore[R any](c *coreContext, protocol kont.Eff[R]) kont.Either[error, R] {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	var errCtx kont.ErrorContext[error]
	h := coreHandler[R]{ctx: c, errCtx: &errCtx}
	return kont.Handle(wrapped, h)
}

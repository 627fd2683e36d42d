// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive core protocol.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// Supersteps runs body for supersteps 0..n-1, each followed by a barrier.
func Supersteps(n int, body func(step int) kont.Eff[struct{}]) kont.Eff[struct{}] {
	return Loop(0, func(i int) kont.Eff[kont.Either[int, struct{}]] {
		if i >= n {
			return kont.Pure(kont.Right[int, struct{}](struct{}{}))
		}
		return kont.Then(body(i), SyncThen(kont.Pure(kont.Left[int, struct{}](i+1))))
	})
}

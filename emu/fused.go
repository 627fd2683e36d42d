// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"code.hybscloud.com/kont"

	"code.hybscloud.com/ebsp/wire"
)

// Done ends a core protocol.
func Done() kont.Eff[struct{}] {
	return kont.Pure(struct{}{})
}

// SyncThen waits at the barrier and then continues with next.
// Fuses Perform(Sync{}) + Then.
func SyncThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Sync{}), next)
}

// InboxBind reads the down-messages and passes them to f.
// Fuses Perform(Inbox{}) + Bind.
func InboxBind[B any](f func([]wire.Message) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Inbox{}), f)
}

// SendUpThen produces an up-message and continues with next.
// Throws wire.ErrOutboxFull if the outbox cannot hold it.
func SendUpThen[B any](tag, payload []byte, next kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(SendUp{Tag: tag, Payload: payload}), func(ok bool) kont.Eff[B] {
		if !ok {
			return kont.ThrowError[error, B](wire.ErrOutboxFull)
		}
		return next
	})
}

// SetTagSizeThen fixes the up tag size and continues with next.
func SetTagSizeThen[B any](n int, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SetTagSize{Size: n}), next)
}

// LoadBind reads size bytes of local memory at off and passes them to f.
// Throws ErrOutOfRange if the range is out of bounds.
func LoadBind[B any](off uint32, size int, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Load{Offset: off, Size: size}), func(b []byte) kont.Eff[B] {
		if b == nil && size > 0 {
			return kont.ThrowError[error, B](ErrOutOfRange)
		}
		return f(b)
	})
}

// StoreThen writes data to local memory at off and continues with next.
// Throws ErrOutOfRange if the range is out of bounds.
func StoreThen[B any](off uint32, data []byte, next kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Store{Offset: off, Data: data}), func(ok bool) kont.Eff[B] {
		if !ok {
			return kont.ThrowError[error, B](ErrOutOfRange)
		}
		return next
	})
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package emu is an in-process accelerator implementing [ebsp.Device].
//
// A [Device] holds one local memory per core and an external segment, laid
// out per package [code.hybscloud.com/ebsp/wire]. Programs are registered
// by image name and run on one goroutine per core when the host starts
// them.
//
// # Programs
//
// A [Program] builds, for each core, a protocol of typed effect operations
// on [code.hybscloud.com/kont]: [Sync], [Inbox], [SendUp], [SetTagSize],
// [Load] and [Store]. A core handler dispatches them against the core's
// memory. [Sync] is non-blocking at dispatch and returns
// [code.hybscloud.com/iox.ErrWouldBlock] until the host releases the
// barrier; the handler waits past it with adaptive backoff. Programs fail
// by throwing a kont error effect, which marks the core failed.
//
// # Example
//
//	dev.Register("echo", func(env emu.Env) kont.Eff[struct{}] {
//		return emu.InboxBind(func(msgs []wire.Message) kont.Eff[struct{}] {
//			return emu.SendUpThen(msgs[0].Tag, msgs[0].Payload,
//				emu.SyncThen(emu.Done()))
//		})
//	})
package emu

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ebsp is the host side of a Bulk Synchronous Parallel runtime for a
// host processor driving an array of accelerator cores.
//
// The host owns a [Session] that loads an SPMD program onto the cores,
// seeds them with down-messages, services the superstep barriers and
// collects the up-messages the cores produce. The accelerator is reached
// only through a [Device], which exposes byte transfers to core-local and
// external memory and program load/start/halt. The memory contract between
// both sides lives in package [code.hybscloud.com/ebsp/wire].
//
// # Architecture
//
//   - Memory Transfer: [Session.Write] and [Session.Read] copy bytes to and from
//     an [Addr] (processor id + offset). Everything else is built on them.
//   - Processor Registry: [Session.NProcs], [Session.Active], [Session.Running].
//   - Down protocol: [Session.SetTagSize] and [Session.SendDown] stage messages
//     in bounded lock-free SPSC queues ([code.hybscloud.com/lfq]); they are
//     flushed to the core inboxes at launch.
//   - Up protocol: cores append to outboxes in external memory. The host
//     ingests them at each barrier while cores are quiescent; drain with
//     [Session.QSize], [Session.GetTag], [Session.Move], [Session.HPMove].
//   - Synchronization: [Session.Poll] is a non-blocking barrier step that
//     returns [code.hybscloud.com/iox.ErrWouldBlock] until every core has
//     arrived; [Session.Sync] and [Session.Spmd] wait with adaptive backoff.
//
// # Lifecycle
//
//	New → Init → Begin → SendDown* → Spmd (supersteps) → drain → End
//
// [Session.Begin] claims and prepares the processor subset; [Session.Spmd]
// launches it and drives barriers until every core finishes. A session is
// driven by one host goroutine; callers serialize access.
//
// # Example
//
//	s, _ := ebsp.New(dev)
//	if err := s.Init("hello", nil); err != nil {
//		return err
//	}
//	_ = s.Begin(4)
//	_ = s.SendDown(2, nil, []byte{1, 2, 3})
//	if err := s.Spmd(); err != nil {
//		return err
//	}
//	for {
//		tag, payload, err := s.HPMove()
//		if err != nil {
//			break // ErrQueueEmpty
//		}
//		consume(tag, payload)
//	}
//	return s.End()
package ebsp

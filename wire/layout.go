// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire defines the memory contract between the host runtime and the
// accelerator-side runtime: where the control block, inbox and outboxes
// live, and how their records are encoded.
//
// All multi-byte fields are little-endian uint32. Cores only write their own
// control block status fields, their outbox and the up tag size; the host
// writes everything else.
package wire

// Core-local memory map. Offsets are relative to the base of each core's
// local memory; the host never sees the base itself.
const (
	// ControlOffset is the per-core control block written by both sides.
	ControlOffset = 0x0100
	ControlSize   = 0x20

	// InboxOffset holds down-messages flushed by the host before launch.
	InboxOffset = 0x0200
	InboxSize   = 0x1000

	// UserOffset is the first byte not reserved by the runtime.
	UserOffset = 0x2000

	// MinLocalSize is the smallest core-local memory the layout fits in.
	MinLocalSize = UserOffset
)

// Control block field offsets, relative to ControlOffset.
// Every field is a little-endian uint32.
const (
	CtlPid      = 0x00 // host
	CtlNProcs   = 0x04 // host
	CtlArrived  = 0x08 // core: superstep the core has arrived at
	CtlReleased = 0x0C // host: superstep the host has released
	CtlStatus   = 0x10 // core
)

// External memory map. The external segment starts with a header followed
// by one outbox per active core, each Stride bytes long.
const (
	ExternalHeaderSize = 0x40

	ExtMagic      = 0x00
	ExtTagSize    = 0x04 // core: up-message tag size
	ExtNProcs     = 0x08 // host
	ExtStride     = 0x0C // host: bytes per outbox
	ExtSupersteps = 0x10 // host: barriers crossed

	// Magic marks an external segment prepared by the host.
	Magic = 0x42535045

	// MinExternalSize leaves room for the header and one minimal outbox.
	MinExternalSize = ExternalHeaderSize + OutboxHeaderSize + 64
)

// Status is the core-reported execution state in the control block.
type Status uint32

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSync
	StatusFinished
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusSync:
		return "sync"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Align rounds n up to a multiple of a, which must be a power of two.
func Align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// OutboxStride returns the per-core outbox size for nprocs cores sharing
// an external segment of extSize bytes. Zero means the segment is too small.
func OutboxStride(extSize, nprocs int) int {
	if nprocs <= 0 || extSize <= ExternalHeaderSize {
		return 0
	}
	stride := ((extSize - ExternalHeaderSize) / nprocs) &^ 7
	if stride < OutboxHeaderSize+8 {
		return 0
	}
	return stride
}

// OutboxBase returns the external offset of pid's outbox.
func OutboxBase(pid, stride int) uint32 {
	return uint32(ExternalHeaderSize + pid*stride)
}

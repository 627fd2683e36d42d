// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"sync"

	"code.hybscloud.com/ebsp/wire"
)

// memory is one addressable segment. Each access is atomic with respect to
// other accesses of the same segment; nothing orders accesses across
// segments.
type memory struct {
	mu  sync.Mutex
	buf []byte
}

func newMemory(size int) *memory {
	return &memory{buf: make([]byte, size)}
}

func (m *memory) inRange(off uint32, n int) bool {
	return uint64(off)+uint64(n) <= uint64(len(m.buf))
}

func (m *memory) read(off uint32, p []byte) error {
	if !m.inRange(off, len(p)) {
		return ErrOutOfRange
	}
	m.mu.Lock()
	copy(p, m.buf[off:])
	m.mu.Unlock()
	return nil
}

func (m *memory) write(off uint32, p []byte) error {
	if !m.inRange(off, len(p)) {
		return ErrOutOfRange
	}
	m.mu.Lock()
	copy(m.buf[off:], p)
	m.mu.Unlock()
	return nil
}

// load32 and store32 access runtime words at fixed, in-range offsets.
func (m *memory) load32(off uint32) uint32 {
	var b [4]byte
	_ = m.read(off, b[:])
	return wire.Uint32(b[:])
}

func (m *memory) store32(off uint32, v uint32) {
	var b [4]byte
	wire.PutUint32(b[:], v)
	_ = m.write(off, b[:])
}

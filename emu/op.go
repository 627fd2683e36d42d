// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"

	"code.hybscloud.com/ebsp/wire"
)

// Sync is the effect operation for the superstep barrier.
// Perform(Sync{}) returns once the host has released the barrier.
type Sync struct {
	kont.Phantom[struct{}]
}

// DispatchCore handles Sync on the core's control block.
// Non-blocking: announces arrival once, then returns iox.ErrWouldBlock
// until the host's released counter reaches it.
func (Sync) DispatchCore(c *coreContext) (kont.Resumed, error) {
	next := c.steps + 1
	if !c.arrived {
		c.mem.store32(wire.ControlOffset+wire.CtlArrived, next)
		c.setStatus(wire.StatusSync)
		c.arrived = true
	}
	if c.mem.load32(wire.ControlOffset+wire.CtlReleased) < next {
		return nil, iox.ErrWouldBlock
	}
	c.arrived = false
	c.steps = next
	if c.inboxOpen {
		c.closeInbox()
	}
	c.setStatus(wire.StatusRunning)
	return struct{}{}, nil
}

// Inbox is the effect operation for reading the down-messages.
// Perform(Inbox{}) returns them in send order before the first Sync and
// nil afterwards. It does not consume them.
type Inbox struct {
	kont.Phantom[[]wire.Message]
}

// DispatchCore handles Inbox. Never blocks.
func (Inbox) DispatchCore(c *coreContext) (kont.Resumed, error) {
	return c.readInbox(), nil
}

// SendUp is the effect operation for producing an up-message.
// Perform(SendUp{...}) reports false if the outbox is full.
type SendUp struct {
	kont.Phantom[bool]
	Tag     []byte
	Payload []byte
}

// DispatchCore handles SendUp on the core's outbox. Never blocks.
func (s SendUp) DispatchCore(c *coreContext) (kont.Resumed, error) {
	return c.appendOutbox(s.Tag, s.Payload) == nil, nil
}

// SetTagSize is the effect operation for fixing the up-message tag size
// the host reads back.
type SetTagSize struct {
	kont.Phantom[struct{}]
	Size int
}

// DispatchCore handles SetTagSize on the external header. Never blocks.
func (s SetTagSize) DispatchCore(c *coreContext) (kont.Resumed, error) {
	c.dev.ext.store32(wire.ExtTagSize, uint32(s.Size))
	return struct{}{}, nil
}

// Load is the effect operation for reading the core's own local memory.
// Perform(Load{...}) returns nil if the range is out of bounds.
type Load struct {
	kont.Phantom[[]byte]
	Offset uint32
	Size   int
}

// DispatchCore handles Load. Never blocks.
func (l Load) DispatchCore(c *coreContext) (kont.Resumed, error) {
	b := make([]byte, l.Size)
	if err := c.mem.read(l.Offset, b); err != nil {
		return []byte(nil), nil
	}
	return b, nil
}

// Store is the effect operation for writing the core's own local memory.
// Perform(Store{...}) reports false if the range is out of bounds.
type Store struct {
	kont.Phantom[bool]
	Offset uint32
	Data   []byte
}

// DispatchCore handles Store. Never blocks.
func (s Store) DispatchCore(c *coreContext) (kont.Resumed, error) {
	return c.mem.write(s.Offset, s.Data) == nil, nil
}

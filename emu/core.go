// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kont"

	"code.hybscloud.com/ebsp/wire"
)

// Env identifies the core a program instance runs on. It is read from the
// control block the host wrote before launch.
type Env struct {
	Pid    int
	NProcs int
}

// Program builds the protocol one core executes.
type Program func(env Env) kont.Eff[struct{}]

// coreContext is the accelerator-side runtime state of one core. It is
// owned by the core goroutine.
type coreContext struct {
	dev *Device
	pid int
	mem *memory

	// steps counts completed barriers; arrived is set between announcing
	// arrival at steps+1 and observing its release.
	steps   uint32
	arrived bool

	// inboxOpen holds until the first barrier completes.
	inboxOpen bool
}

func (c *coreContext) setStatus(s wire.Status) {
	c.mem.store32(wire.ControlOffset+wire.CtlStatus, uint32(s))
}

func (c *coreContext) env() Env {
	return Env{
		Pid:    int(c.mem.load32(wire.ControlOffset + wire.CtlPid)),
		NProcs: int(c.mem.load32(wire.ControlOffset + wire.CtlNProcs)),
	}
}

// run executes prog to completion and reports the core's final status.
// A halted core keeps the status it had.
func (c *coreContext) run(prog Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.setStatus(wire.StatusFailed)
			err = fmt.Errorf("emu: core %d panicked: %v", c.pid, r)
		}
	}()
	c.setStatus(wire.StatusRunning)
	result := execCore(c, prog(c.env()))
	if e, ok := result.GetLeft(); ok {
		if errors.Is(e, ErrHalted) {
			return nil
		}
		c.setStatus(wire.StatusFailed)
		return fmt.Errorf("emu: core %d: %w", c.pid, e)
	}
	c.setStatus(wire.StatusFinished)
	return nil
}

// closeInbox drops the down-messages once the first barrier completes.
func (c *coreContext) closeInbox() {
	c.inboxOpen = false
	_ = c.mem.write(wire.InboxOffset, make([]byte, wire.InboxHeaderSize))
}

func (c *coreContext) readInbox() []wire.Message {
	if !c.inboxOpen {
		return nil
	}
	b := make([]byte, wire.InboxSize)
	if err := c.mem.read(wire.InboxOffset, b); err != nil {
		return nil
	}
	msgs, err := wire.DecodeInbox(b)
	if err != nil {
		return nil
	}
	return msgs
}

// appendOutbox adds one record to this core's outbox in external memory.
func (c *coreContext) appendOutbox(tag, payload []byte) error {
	ext := c.dev.ext
	stride := int(ext.load32(wire.ExtStride))
	if stride == 0 {
		return wire.ErrOutboxFull
	}
	base := wire.OutboxBase(c.pid, stride)
	hdr := make([]byte, wire.OutboxHeaderSize)
	if err := ext.read(base, hdr); err != nil {
		return err
	}
	count, used, err := wire.DecodeOutboxHeader(hdr)
	if err != nil {
		return err
	}
	rec := wire.EncodeOutboxRecord(tag, payload)
	if wire.OutboxHeaderSize+used+len(rec) > stride {
		return wire.ErrOutboxFull
	}
	if err := ext.write(base+wire.OutboxHeaderSize+uint32(used), rec); err != nil {
		return err
	}
	return ext.write(base, wire.EncodeOutboxHeader(count+1, used+len(rec)))
}

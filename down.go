// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"fmt"

	"code.hybscloud.com/lfq"

	"code.hybscloud.com/ebsp/wire"
)

// downMessage is a staged host→core message. Tag and payload are copies
// owned by the queue.
type downMessage struct {
	tag     []byte
	payload []byte
}

// downQueues stages down-messages per destination until launch.
// The host goroutine is both producer and consumer of every queue.
type downQueues struct {
	qs      []lfq.SPSC[downMessage]
	used    []int // encoded inbox bytes per pid, header excluded
	count   []int
	tagSize int
	fixed   bool
	sent    bool
	closed  bool
}

func (d *downQueues) init(nprocs, capacity int) {
	d.qs = make([]lfq.SPSC[downMessage], nprocs)
	for i := range d.qs {
		d.qs[i].Init(capacity)
	}
	d.used = make([]int, nprocs)
	d.count = make([]int, nprocs)
}

// maxPid returns the highest pid holding a staged message, or -1.
func (d *downQueues) maxPid() int {
	for pid := len(d.count) - 1; pid >= 0; pid-- {
		if d.count[pid] > 0 {
			return pid
		}
	}
	return -1
}

// drain dequeues every staged message for pid in send order.
func (d *downQueues) drain(pid int) []wire.Message {
	msgs := make([]wire.Message, 0, d.count[pid])
	for {
		m, err := d.qs[pid].Dequeue()
		if err != nil {
			break
		}
		msgs = append(msgs, wire.Message{Tag: m.tag, Payload: m.payload})
	}
	d.count[pid] = 0
	d.used[pid] = 0
	return msgs
}

func (d *downQueues) release() {
	d.qs = nil
	d.used = nil
	d.count = nil
	d.closed = true
}

// SetTagSize fixes the tag size of down-messages and returns the previous
// value (zero by default). It may be called at most once, before the
// first SendDown and before launch; any later call fails with
// ErrTagSizeFixed and leaves the size unchanged.
func (s *Session) SetTagSize(n int) (prev int, err error) {
	switch s.state {
	case StateUninitialized:
		return 0, ErrNotInitialized
	case StateEnded:
		return 0, ErrEnded
	}
	prev = s.down.tagSize
	if s.down.fixed || s.down.sent || s.down.closed {
		return prev, ErrTagSizeFixed
	}
	if n < 0 || wire.InboxHeaderSize+wire.InboxRecordSize(n, 0) > wire.InboxSize {
		return prev, fmt.Errorf("%w: %d", ErrInvalidTagSize, n)
	}
	s.down.tagSize = n
	s.down.fixed = true
	s.log.Debug().Int("tag_size", n).Msg("down tag size fixed")
	return prev, nil
}

// SendDown stages a message for pid's inbox. Messages to the same pid are
// delivered in send order and are visible to the core until its first
// sync. The tag must be exactly the fixed tag size long; mismatching tags
// are rejected. Sending is allowed from Init until launch.
//
// Every rejection is also logged as a warning.
func (s *Session) SendDown(pid int, tag, payload []byte) error {
	if err := s.sendDown(pid, tag, payload); err != nil {
		s.log.Warn().Err(err).Int("pid", pid).Int("nbytes", len(payload)).Msg("down-message rejected")
		return err
	}
	s.metrics.DownSent(len(payload))
	return nil
}

func (s *Session) sendDown(pid int, tag, payload []byte) error {
	switch s.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateEnded:
		return ErrEnded
	}
	d := &s.down
	if d.closed {
		return ErrDownWindowClosed
	}
	limit := s.reg.total
	if s.begun {
		limit = s.reg.active
	}
	if pid < 0 || pid >= limit {
		return fmt.Errorf("%w: %d", ErrInvalidPid, pid)
	}
	if len(tag) != d.tagSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrTagSize, len(tag), d.tagSize)
	}
	rec := wire.InboxRecordSize(d.tagSize, len(payload))
	if wire.InboxHeaderSize+d.used[pid]+rec > wire.InboxSize {
		return fmt.Errorf("%w: pid %d", ErrInboxFull, pid)
	}
	m := downMessage{
		tag:     append([]byte(nil), tag...),
		payload: append([]byte(nil), payload...),
	}
	if err := d.qs[pid].Enqueue(&m); err != nil {
		return fmt.Errorf("%w: pid %d", ErrQueueFull, pid)
	}
	d.used[pid] += rec
	d.count[pid]++
	d.sent = true
	return nil
}

// flushDown writes every active processor's inbox and closes the down
// window. Processors without messages get an empty inbox. It returns the
// flushed messages so a failed launch can restage them.
func (s *Session) flushDown() ([][]wire.Message, error) {
	d := &s.down
	d.closed = true
	staged := make([][]wire.Message, s.reg.active)
	for pid := range staged {
		staged[pid] = d.drain(pid)
	}
	for pid, msgs := range staged {
		img, err := wire.EncodeInbox(d.tagSize, msgs)
		if err != nil {
			return staged, fmt.Errorf("ebsp: inbox for pid %d: %w", pid, err)
		}
		if err := s.writeLocal(pid, wire.InboxOffset, img); err != nil {
			return staged, err
		}
		if len(msgs) > 0 {
			s.log.Debug().Int("pid", pid).Int("messages", len(msgs)).Msg("inbox flushed")
		}
	}
	return staged, nil
}

// restage puts flushed messages back in send order and reopens the down
// window.
func (d *downQueues) restage(staged [][]wire.Message) {
	for pid, msgs := range staged {
		for _, msg := range msgs {
			m := downMessage{tag: msg.Tag, payload: msg.Payload}
			if err := d.qs[pid].Enqueue(&m); err != nil {
				break
			}
			d.used[pid] += wire.InboxRecordSize(d.tagSize, len(m.payload))
			d.count[pid]++
		}
	}
	d.closed = false
}

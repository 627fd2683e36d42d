// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"fmt"

	"github.com/ef-ds/deque"

	"code.hybscloud.com/ebsp/wire"
)

// upRecord locates one up-message in external memory.
type upRecord struct {
	pid    int
	off    uint32 // record header
	tagLen int
	nbytes int
}

func (r upRecord) tagOff() uint32 { return r.off + wire.OutboxRecordHeaderSize }
func (r upRecord) payloadOff() uint32 { return r.tagOff() + uint32(r.tagLen) }

// upQueue is the host view of all core outboxes, in arrival order:
// barrier, then pid, then send order. Only descriptors are queued; the
// bytes stay in external memory until drained.
type upQueue struct {
	q       deque.Deque
	packets int
	bytes   int
	stride  int
	seen    []int // records ingested per pid
	cursor  []int // outbox bytes ingested per pid
	staging []byte
}

func (u *upQueue) reset(nprocs, stride int) {
	u.q = deque.Deque{}
	u.packets, u.bytes = 0, 0
	u.stride = stride
	u.seen = make([]int, nprocs)
	u.cursor = make([]int, nprocs)
}

func (u *upQueue) release() {
	u.q = deque.Deque{}
	u.packets, u.bytes = 0, 0
	u.seen, u.cursor, u.staging = nil, nil, nil
}

func (u *upQueue) front() (upRecord, bool) {
	v, ok := u.q.Front()
	if !ok {
		return upRecord{}, false
	}
	return v.(upRecord), true
}

func (u *upQueue) pop() {
	v, ok := u.q.PopFront()
	if !ok {
		return
	}
	r := v.(upRecord)
	u.packets--
	u.bytes -= r.nbytes
}

// ingest appends records produced since the last ingest. It must only run
// while every core is quiescent, so outbox headers are never torn.
func (s *Session) ingest() error {
	u := &s.up
	packets, nbytes := 0, 0
	hdr := make([]byte, wire.OutboxHeaderSize)
	rh := make([]byte, wire.OutboxRecordHeaderSize)
	for pid := 0; pid < s.reg.active; pid++ {
		base := wire.OutboxBase(pid, u.stride)
		if err := s.readExternal(base, hdr); err != nil {
			return err
		}
		count, used, err := wire.DecodeOutboxHeader(hdr)
		if err != nil {
			return err
		}
		if wire.OutboxHeaderSize+used > u.stride {
			return fmt.Errorf("ebsp: outbox of pid %d: %w", pid, wire.ErrCorrupt)
		}
		for u.seen[pid] < count {
			off := base + wire.OutboxHeaderSize + uint32(u.cursor[pid])
			if err := s.readExternal(off, rh); err != nil {
				return err
			}
			tagLen, n, err := wire.DecodeOutboxRecordHeader(rh)
			if err != nil {
				return err
			}
			size := wire.OutboxRecordSize(tagLen, n)
			if u.cursor[pid]+size > used {
				return fmt.Errorf("ebsp: outbox record %d of pid %d: %w", u.seen[pid], pid, wire.ErrCorrupt)
			}
			u.q.PushBack(upRecord{pid: pid, off: off, tagLen: tagLen, nbytes: n})
			u.cursor[pid] += size
			u.seen[pid]++
			packets++
			nbytes += n
		}
	}
	if packets > 0 {
		u.packets += packets
		u.bytes += nbytes
		s.metrics.UpCollected(packets, nbytes)
		s.log.Debug().Int("packets", packets).Int("bytes", nbytes).Msg("up-messages collected")
	}
	return nil
}

func (s *Session) checkDrain() error {
	switch s.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateEnded:
		return ErrEnded
	}
	return nil
}

// TagSize returns the up-message tag size set by the accelerator side.
// It is zero until a core sets it, and independent of SetTagSize.
func (s *Session) TagSize() (int, error) {
	if err := s.checkDrain(); err != nil {
		return 0, err
	}
	if !s.begun {
		return 0, nil
	}
	b := make([]byte, 4)
	if err := s.readExternal(wire.ExtTagSize, b); err != nil {
		return 0, err
	}
	return int(wire.Uint32(b)), nil
}

// QSize reports the number of queued up-messages and their total payload
// bytes. Both values come from the same queue state.
func (s *Session) QSize() (packets, accumBytes int, err error) {
	if err := s.checkDrain(); err != nil {
		return 0, 0, err
	}
	return s.up.packets, s.up.bytes, nil
}

// GetTag copies the tag of the next up-message into tag and returns its
// payload length, or -1 if the queue is empty. It does not advance the
// queue: repeated calls observe the same message until Move or HPMove.
func (s *Session) GetTag(tag []byte) (status int, err error) {
	if err := s.checkDrain(); err != nil {
		return -1, err
	}
	r, ok := s.up.front()
	if !ok {
		return -1, nil
	}
	if len(tag) < r.tagLen {
		return -1, fmt.Errorf("%w: have %d bytes, tag is %d", ErrShortBuffer, len(tag), r.tagLen)
	}
	if err := s.readExternal(r.tagOff(), tag[:r.tagLen]); err != nil {
		return -1, err
	}
	return r.nbytes, nil
}

// Move pops the next up-message, copying at most len(payload) bytes of it
// into payload. Larger payloads are truncated; size the buffer with
// GetTag. It returns the number of bytes copied.
func (s *Session) Move(payload []byte) (int, error) {
	if err := s.checkDrain(); err != nil {
		return 0, err
	}
	r, ok := s.up.front()
	if !ok {
		return 0, ErrQueueEmpty
	}
	n := min(len(payload), r.nbytes)
	if n > 0 {
		if err := s.readExternal(r.payloadOff(), payload[:n]); err != nil {
			return 0, err
		}
	}
	s.up.pop()
	s.metrics.UpDrained(r.nbytes)
	return n, nil
}

// HPMove pops the next up-message and returns its tag and payload without
// a caller-side copy. Both slices point into a host staging buffer filled
// by one read of the whole record from external memory; they stay valid
// until the next HPMove or End. The staging read makes HPMove slower per
// call than Move for small messages.
func (s *Session) HPMove() (tag, payload []byte, err error) {
	if err := s.checkDrain(); err != nil {
		return nil, nil, err
	}
	r, ok := s.up.front()
	if !ok {
		return nil, nil, ErrQueueEmpty
	}
	size := r.tagLen + r.nbytes
	if cap(s.up.staging) < size {
		s.up.staging = make([]byte, size)
	}
	buf := s.up.staging[:size]
	if size > 0 {
		if err := s.readExternal(r.tagOff(), buf); err != nil {
			return nil, nil, err
		}
	}
	s.up.pop()
	s.metrics.UpDrained(r.nbytes)
	return buf[:r.tagLen:r.tagLen], buf[r.tagLen:size:size], nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrInboxOverflow reports that encoded down-messages exceed InboxSize.
	ErrInboxOverflow = errors.New("wire: inbox overflow")
	// ErrOutboxFull reports that a record does not fit the remaining outbox.
	ErrOutboxFull = errors.New("wire: outbox full")
	// ErrCorrupt reports a header or record that does not parse.
	ErrCorrupt = errors.New("wire: corrupt record")
)

var le = binary.LittleEndian

// Message is a decoded tagged payload.
type Message struct {
	Tag     []byte
	Payload []byte
}

// Control mirrors the control block of one core.
type Control struct {
	Pid      uint32
	NProcs   uint32
	Arrived  uint32
	Released uint32
	Status   Status
}

// EncodeControl returns the ControlSize-byte image of c.
func EncodeControl(c Control) []byte {
	b := make([]byte, ControlSize)
	le.PutUint32(b[CtlPid:], c.Pid)
	le.PutUint32(b[CtlNProcs:], c.NProcs)
	le.PutUint32(b[CtlArrived:], c.Arrived)
	le.PutUint32(b[CtlReleased:], c.Released)
	le.PutUint32(b[CtlStatus:], uint32(c.Status))
	return b
}

// DecodeControl parses a control block image.
func DecodeControl(b []byte) (Control, error) {
	if len(b) < ControlSize {
		return Control{}, ErrCorrupt
	}
	return Control{
		Pid:      le.Uint32(b[CtlPid:]),
		NProcs:   le.Uint32(b[CtlNProcs:]),
		Arrived:  le.Uint32(b[CtlArrived:]),
		Released: le.Uint32(b[CtlReleased:]),
		Status:   Status(le.Uint32(b[CtlStatus:])),
	}, nil
}

// PutUint32 and Uint32 expose the field encoding for single-word updates.
func PutUint32(b []byte, v uint32) { le.PutUint32(b, v) }

func Uint32(b []byte) uint32 { return le.Uint32(b) }

// Inbox layout: [count u32][used u32][tagSize u32][reserved u32] followed by
// count records of [payload u32][tag][payload], each padded to 4 bytes.
const InboxHeaderSize = 16

// InboxRecordSize is the padded size of one inbox record.
func InboxRecordSize(tagSize, nbytes int) int {
	return Align(4+tagSize+nbytes, 4)
}

// EncodeInbox lays out msgs for a core inbox. Every tag must be tagSize long.
func EncodeInbox(tagSize int, msgs []Message) ([]byte, error) {
	used := 0
	for _, m := range msgs {
		if len(m.Tag) != tagSize {
			return nil, ErrCorrupt
		}
		used += InboxRecordSize(tagSize, len(m.Payload))
	}
	if InboxHeaderSize+used > InboxSize {
		return nil, ErrInboxOverflow
	}
	b := make([]byte, InboxHeaderSize+used)
	le.PutUint32(b[0:], uint32(len(msgs)))
	le.PutUint32(b[4:], uint32(used))
	le.PutUint32(b[8:], uint32(tagSize))
	off := InboxHeaderSize
	for _, m := range msgs {
		le.PutUint32(b[off:], uint32(len(m.Payload)))
		copy(b[off+4:], m.Tag)
		copy(b[off+4+tagSize:], m.Payload)
		off += InboxRecordSize(tagSize, len(m.Payload))
	}
	return b, nil
}

// DecodeInbox parses an inbox image. Returned slices alias b.
func DecodeInbox(b []byte) ([]Message, error) {
	if len(b) < InboxHeaderSize {
		return nil, ErrCorrupt
	}
	count := int(le.Uint32(b[0:]))
	used := int(le.Uint32(b[4:]))
	tagSize := int(le.Uint32(b[8:]))
	if InboxHeaderSize+used > len(b) || used > InboxSize {
		return nil, ErrCorrupt
	}
	msgs := make([]Message, 0, count)
	off := InboxHeaderSize
	end := InboxHeaderSize + used
	for i := 0; i < count; i++ {
		if off+4+tagSize > end {
			return nil, ErrCorrupt
		}
		n := int(le.Uint32(b[off:]))
		if off+4+tagSize+n > end {
			return nil, ErrCorrupt
		}
		msgs = append(msgs, Message{
			Tag:     b[off+4 : off+4+tagSize],
			Payload: b[off+4+tagSize : off+4+tagSize+n],
		})
		off += InboxRecordSize(tagSize, n)
	}
	return msgs, nil
}

// Outbox layout: [count u32][used u32] followed by records of
// [tag u32][payload u32][tag][payload], each padded to 4 bytes.
const (
	OutboxHeaderSize       = 8
	OutboxRecordHeaderSize = 8
)

// OutboxRecordSize is the padded size of one outbox record.
func OutboxRecordSize(tagLen, nbytes int) int {
	return Align(OutboxRecordHeaderSize+tagLen+nbytes, 4)
}

// EncodeOutboxRecord returns the padded image of one outbox record.
func EncodeOutboxRecord(tag, payload []byte) []byte {
	b := make([]byte, OutboxRecordSize(len(tag), len(payload)))
	le.PutUint32(b[0:], uint32(len(tag)))
	le.PutUint32(b[4:], uint32(len(payload)))
	copy(b[OutboxRecordHeaderSize:], tag)
	copy(b[OutboxRecordHeaderSize+len(tag):], payload)
	return b
}

// DecodeOutboxHeader returns the record count and used bytes of an outbox.
func DecodeOutboxHeader(b []byte) (count, used int, err error) {
	if len(b) < OutboxHeaderSize {
		return 0, 0, ErrCorrupt
	}
	return int(le.Uint32(b[0:])), int(le.Uint32(b[4:])), nil
}

// EncodeOutboxHeader returns the header image of an outbox.
func EncodeOutboxHeader(count, used int) []byte {
	b := make([]byte, OutboxHeaderSize)
	le.PutUint32(b[0:], uint32(count))
	le.PutUint32(b[4:], uint32(used))
	return b
}

// DecodeOutboxRecordHeader returns the tag and payload lengths of a record.
func DecodeOutboxRecordHeader(b []byte) (tagLen, nbytes int, err error) {
	if len(b) < OutboxRecordHeaderSize {
		return 0, 0, ErrCorrupt
	}
	return int(le.Uint32(b[0:])), int(le.Uint32(b[4:])), nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import "fmt"

// Addr is a location in one core's local memory. It is an offset, never a
// host pointer: the host cannot dereference accelerator memory.
type Addr struct {
	Pid    int
	Offset uint32
}

// At returns the address off bytes into pid's local memory.
func At(pid int, off uint32) Addr {
	return Addr{Pid: pid, Offset: off}
}

func (a Addr) String() string {
	return fmt.Sprintf("%d:%#x", a.Pid, a.Offset)
}

// Write copies src into local memory at dst. The processor must have been
// claimed by Begin and the range must lie inside its local memory.
func (s *Session) Write(dst Addr, src []byte) error {
	if err := s.checkTransfer(dst, len(src)); err != nil {
		return err
	}
	if err := s.writeLocal(dst.Pid, dst.Offset, src); err != nil {
		return err
	}
	s.metrics.Transfer("write", len(src))
	return nil
}

// Read copies len(dst) bytes of local memory at src into dst.
func (s *Session) Read(src Addr, dst []byte) error {
	if err := s.checkTransfer(src, len(dst)); err != nil {
		return err
	}
	if err := s.readLocal(src.Pid, src.Offset, dst); err != nil {
		return err
	}
	s.metrics.Transfer("read", len(dst))
	return nil
}

func (s *Session) checkTransfer(a Addr, size int) error {
	switch s.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateEnded:
		return ErrEnded
	}
	if !s.reg.valid(a.Pid) {
		return fmt.Errorf("%w: %d", ErrInvalidPid, a.Pid)
	}
	if uint64(a.Offset)+uint64(size) > uint64(s.dev.LocalSize()) {
		return fmt.Errorf("%w: %d bytes at %v", ErrOutOfRange, size, a)
	}
	return nil
}

func (s *Session) writeLocal(pid int, off uint32, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := s.dev.WriteLocal(pid, off, p); err != nil {
		return fmt.Errorf("%w: write %d bytes at %v: %w", ErrTransport, len(p), At(pid, off), err)
	}
	return nil
}

func (s *Session) readLocal(pid int, off uint32, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := s.dev.ReadLocal(pid, off, p); err != nil {
		return fmt.Errorf("%w: read %d bytes at %v: %w", ErrTransport, len(p), At(pid, off), err)
	}
	return nil
}

func (s *Session) writeExternal(off uint32, p []byte) error {
	if err := s.dev.WriteExternal(off, p); err != nil {
		return fmt.Errorf("%w: write %d external bytes at %#x: %w", ErrTransport, len(p), off, err)
	}
	return nil
}

func (s *Session) readExternal(off uint32, p []byte) error {
	if err := s.dev.ReadExternal(off, p); err != nil {
		return fmt.Errorf("%w: read %d external bytes at %#x: %w", ErrTransport, len(p), off, err)
	}
	return nil
}

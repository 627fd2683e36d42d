// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"fmt"
	"time"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/ebsp/wire"
)

// Start flushes the staged down-messages into the core inboxes, closes the
// down window and launches the program on the processors claimed by Begin.
// It returns without waiting for any barrier. If the launch fails, the
// messages are restaged and the down window reopens, so Start can be
// retried.
func (s *Session) Start() error {
	if err := s.state.lifecycleErr(); err != nil {
		return err
	}
	if s.launched {
		return ErrStarted
	}
	staged, err := s.flushDown()
	if err != nil {
		s.down.restage(staged)
		return err
	}
	if err := s.dev.Start(s.reg.active); err != nil {
		s.down.restage(staged)
		s.log.Error().Err(err).Msg("launch failed")
		return fmt.Errorf("%w: start %d cores: %w", ErrTransport, s.reg.active, err)
	}
	for pid := 0; pid < s.reg.active; pid++ {
		s.reg.setRunning(pid, true)
	}
	s.launched = true
	s.released = time.Now()
	s.log.Info().Str("image", s.image).Int("nprocs", s.reg.active).Msg("launched")
	return nil
}

// Poll advances the barrier protocol without blocking.
//
// It returns iox.ErrWouldBlock while some core is still computing. When
// every core has arrived at the next barrier, Poll ingests their
// up-messages, runs the sync callback and releases them, returning
// (false, nil). When every core has finished, it ingests the final
// up-messages and returns (true, nil); later calls keep returning true.
func (s *Session) Poll() (done bool, err error) {
	if err := s.state.lifecycleErr(); err != nil {
		return false, err
	}
	if !s.launched {
		return false, ErrNotStarted
	}
	if s.fault != nil {
		return false, s.fault
	}
	if s.finished {
		return true, nil
	}

	n := s.reg.active
	next := uint32(s.steps + 1)
	arrived, finished := 0, 0
	buf := make([]byte, wire.ControlSize)
	for pid := 0; pid < n; pid++ {
		if err := s.readLocal(pid, wire.ControlOffset, buf); err != nil {
			return false, err
		}
		ctl, err := wire.DecodeControl(buf)
		if err != nil {
			return false, err
		}
		switch ctl.Status {
		case wire.StatusFailed:
			s.reg.setRunning(pid, false)
			return false, s.fail(fmt.Errorf("%w: pid %d", ErrCoreFailed, pid))
		case wire.StatusFinished:
			s.reg.setRunning(pid, false)
			finished++
		case wire.StatusSync:
			if ctl.Arrived == next {
				arrived++
			}
		}
	}

	switch {
	case finished == n:
		if err := s.ingest(); err != nil {
			return false, err
		}
		s.finished = true
		s.log.Info().Int("supersteps", s.steps).Msg("program finished")
		return true, nil
	case arrived+finished == n && finished > 0:
		return false, s.fail(fmt.Errorf("%w: %d cores finished while %d wait at superstep %d",
			ErrBarrierMismatch, finished, arrived, next))
	case arrived == n:
		return false, s.barrier()
	}
	return false, iox.ErrWouldBlock
}

// barrier runs one Syncing phase: the queues are stable until the cores
// are released.
func (s *Session) barrier() error {
	s.state = StateSyncing
	if err := s.ingest(); err != nil {
		s.state = StateRunning
		return err
	}
	if s.onSync != nil {
		s.onSync()
	}
	s.steps++
	step := make([]byte, 4)
	wire.PutUint32(step, uint32(s.steps))
	if err := s.writeExternal(wire.ExtSupersteps, step); err != nil {
		s.state = StateRunning
		return err
	}
	for pid := 0; pid < s.reg.active; pid++ {
		if err := s.writeLocal(pid, wire.ControlOffset+wire.CtlReleased, step); err != nil {
			s.state = StateRunning
			return err
		}
	}
	now := time.Now()
	s.metrics.Superstep(now.Sub(s.released))
	s.released = now
	s.state = StateRunning
	s.log.Debug().Int("superstep", s.steps).Msg("barrier released")
	return nil
}

func (s *Session) fail(err error) error {
	s.fault = err
	s.log.Error().Err(err).Int("superstep", s.steps).Msg("barrier failed")
	return err
}

// Sync blocks until Poll makes progress: one barrier is crossed or the
// program finishes. There is no timeout; a core that never arrives blocks
// Sync forever.
func (s *Session) Sync() (done bool, err error) {
	var bo iox.Backoff
	for {
		done, err = s.Poll()
		if !iox.IsWouldBlock(err) {
			return done, err
		}
		bo.Wait()
	}
}

// Spmd launches the program and drives barriers until every core
// finishes. Begin must have succeeded; Spmd does not imply Begin.
func (s *Session) Spmd() error {
	if err := s.Start(); err != nil {
		return err
	}
	for {
		done, err := s.Sync()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Supersteps returns the number of barriers crossed so far.
func (s *Session) Supersteps() int {
	return s.steps
}

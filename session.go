// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"code.hybscloud.com/ebsp/metrics"
	"code.hybscloud.com/ebsp/wire"
)

// Session is one run of an SPMD program on a Device.
//
// A Session owns the processor registry, the down staging queues and the
// up-queue for its lifetime; End releases them exactly once. It is driven
// by a single host goroutine.
type Session struct {
	dev     Device
	log     zerolog.Logger
	metrics Metrics
	serial  Serial

	state State
	image string
	reg   registry
	down  downQueues
	up    upQueue

	downCapacity int

	onSync func()
	onEnd  func()

	begun    bool
	launched bool
	finished bool
	fault    error
	steps    int
	released time.Time

	discardedPackets int
	discardedBytes   int
}

// New creates an uninitialized Session on dev.
func New(dev Device, opts ...Option) (*Session, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	s := &Session{
		dev:          dev,
		log:          zerolog.Nop(),
		metrics:      metrics.NoopCollector{},
		serial:       nextSerial(),
		downCapacity: defaultDownQueueCapacity,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply session option: %w", err)
		}
	}
	s.log = s.log.With().Str("component", "ebsp").Uint32("session", s.serial).Logger()
	return s, nil
}

// Serial returns the serial number assigned to this session.
func (s *Session) Serial() Serial {
	return s.serial
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Init discovers the processor count and loads the program image. If the
// load fails the session stays uninitialized, but NProcs still reports the
// discovered count.
func (s *Session) Init(image string, args []string) error {
	switch s.state {
	case StateUninitialized:
	case StateEnded:
		return ErrEnded
	default:
		return ErrInitialized
	}
	if s.dev.LocalSize() < wire.MinLocalSize || s.dev.ExternalSize() < wire.MinExternalSize {
		return ErrDeviceLayout
	}
	n := s.dev.Cores()
	if n <= 0 {
		return fmt.Errorf("%w: device reports %d cores", ErrInvalidNProcs, n)
	}
	s.reg.init(n)
	if err := s.dev.Load(image, args); err != nil {
		s.log.Error().Err(err).Str("image", image).Msg("load failed")
		return fmt.Errorf("ebsp: load %q: %w", image, err)
	}
	s.image = image
	s.down.init(n, s.downCapacity)
	s.state = StateInitialized
	s.log.Info().Str("image", image).Int("nprocs", n).Msg("initialized")
	return nil
}

// Begin claims processors 0..n-1 for the program and prepares their
// control blocks, outboxes and the external header. It does not launch
// the program; see Spmd. On failure the session stays initialized.
func (s *Session) Begin(n int) error {
	switch s.state {
	case StateInitialized:
	case StateUninitialized:
		return ErrNotInitialized
	case StateEnded:
		return ErrEnded
	default:
		return ErrBegun
	}
	if n <= 0 || n > s.reg.total {
		return fmt.Errorf("%w: %d of %d", ErrInvalidNProcs, n, s.reg.total)
	}
	if pid := s.down.maxPid(); pid >= n {
		return fmt.Errorf("%w: down-messages staged for pid %d beyond %d processors", ErrInvalidPid, pid, n)
	}
	stride := wire.OutboxStride(s.dev.ExternalSize(), n)
	if stride == 0 {
		return fmt.Errorf("%w: external memory cannot hold %d outboxes", ErrInvalidNProcs, n)
	}
	for pid := 0; pid < n; pid++ {
		ctl := wire.EncodeControl(wire.Control{Pid: uint32(pid), NProcs: uint32(n), Status: wire.StatusIdle})
		if err := s.writeLocal(pid, wire.ControlOffset, ctl); err != nil {
			return err
		}
		if err := s.writeExternal(wire.OutboxBase(pid, stride), wire.EncodeOutboxHeader(0, 0)); err != nil {
			return err
		}
	}
	hdr := make([]byte, wire.ExternalHeaderSize)
	wire.PutUint32(hdr[wire.ExtMagic:], wire.Magic)
	wire.PutUint32(hdr[wire.ExtNProcs:], uint32(n))
	wire.PutUint32(hdr[wire.ExtStride:], uint32(stride))
	if err := s.writeExternal(0, hdr); err != nil {
		return err
	}
	s.reg.activate(n)
	s.up.reset(n, stride)
	s.begun = true
	s.state = StateRunning
	s.log.Info().Int("nprocs", n).Int("outbox_stride", stride).Msg("begun")
	return nil
}

// SetSyncCallback registers fn to run on the host once per barrier
// crossing, after up-messages of the finished superstep are ingested and
// before cores are released. Registering again replaces fn; nil clears it.
func (s *Session) SetSyncCallback(fn func()) {
	s.onSync = fn
}

// SetEndCallback registers fn to run at the start of End. It is the last
// point at which up-messages can be drained. Registering again replaces fn.
func (s *Session) SetEndCallback(fn func()) {
	s.onEnd = fn
}

// End tears the session down: it runs the end callback, halts the cores,
// records any undrained up-messages as discarded and closes the device.
// Teardown is best-effort; every failure is reported in the returned error
// but does not stop the remaining steps. A second End returns ErrEnded.
func (s *Session) End() error {
	if s.state == StateEnded {
		return ErrEnded
	}
	var errs *multierror.Error
	if s.begun && s.onEnd != nil {
		s.onEnd()
	}
	if s.launched {
		if err := s.dev.Halt(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: halt: %w", ErrTransport, err))
		}
	}
	if s.up.packets > 0 {
		s.discardedPackets, s.discardedBytes = s.up.packets, s.up.bytes
		s.metrics.UpDiscarded(s.up.packets, s.up.bytes)
		s.log.Warn().
			Int("packets", s.up.packets).
			Int("bytes", s.up.bytes).
			Msg("discarding undrained up-messages")
	}
	if err := s.dev.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("%w: close: %w", ErrTransport, err))
	}
	s.down.release()
	s.up.release()
	s.reg.release()
	s.state = StateEnded
	s.log.Info().Int("supersteps", s.steps).Msg("ended")
	return errs.ErrorOrNil()
}

// Discarded reports the up-messages End found undrained.
func (s *Session) Discarded() (packets, accumBytes int) {
	return s.discardedPackets, s.discardedBytes
}

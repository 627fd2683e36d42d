// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"errors"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/ebsp"
)

var (
	ErrOutOfRange   = errors.New("emu: address out of range")
	ErrNoCore       = errors.New("emu: no such core")
	ErrUnknownImage = errors.New("emu: unknown program image")
	ErrNotLoaded    = errors.New("emu: no program loaded")
	ErrBusy         = errors.New("emu: device busy")
	ErrClosed       = errors.New("emu: device closed")
	ErrHalted       = errors.New("emu: core halted")
)

var _ ebsp.Device = (*Device)(nil)

// Device is an emulated accelerator. Memory accessors are safe for
// concurrent use by the host and the running cores.
type Device struct {
	platform Platform
	local    []*memory
	ext      *memory

	mu       sync.Mutex
	programs map[string]Program
	image    string
	program  Program
	args     []string
	group    *errgroup.Group
	started  bool
	closed   bool

	// halt is raised once by Halt and never lowered.
	halt atomix.Uint32
}

// New creates a device for p with zeroed memory and no programs.
func New(p Platform) (*Device, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		platform: p,
		local:    make([]*memory, p.Cores()),
		ext:      newMemory(p.ExternalSize),
		programs: make(map[string]Program),
	}
	for i := range d.local {
		d.local[i] = newMemory(p.LocalSize)
	}
	return d, nil
}

// Register makes prog loadable as image. Registering again replaces it.
func (d *Device) Register(image string, prog Program) {
	d.mu.Lock()
	d.programs[image] = prog
	d.mu.Unlock()
}

// Platform returns the platform the device was created with.
func (d *Device) Platform() Platform {
	return d.platform
}

// Args returns the arguments passed to the last Load.
func (d *Device) Args() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.args
}

func (d *Device) Cores() int { return d.platform.Cores() }
func (d *Device) LocalSize() int { return d.platform.LocalSize }
func (d *Device) ExternalSize() int { return d.platform.ExternalSize }

// Load selects the registered program image.
func (d *Device) Load(image string, args []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.started {
		return ErrBusy
	}
	prog, ok := d.programs[image]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownImage, image)
	}
	d.image = image
	d.program = prog
	d.args = append([]string(nil), args...)
	return nil
}

// Start runs the loaded program on cores 0..n-1, one goroutine each.
// A device starts at most once.
func (d *Device) Start(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.program == nil {
		return ErrNotLoaded
	}
	if d.started || d.halted() {
		return ErrBusy
	}
	if n <= 0 || n > len(d.local) {
		return fmt.Errorf("%w: start %d of %d", ErrNoCore, n, len(d.local))
	}
	d.group = new(errgroup.Group)
	for pid := 0; pid < n; pid++ {
		c := &coreContext{dev: d, pid: pid, mem: d.local[pid], inboxOpen: true}
		prog := d.program
		d.group.Go(func() error {
			return c.run(prog)
		})
	}
	d.started = true
	return nil
}

// Halt stops every core at its next effect operation and waits for the
// core goroutines. It returns the first program failure.
func (d *Device) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	if d.halt.Load() == 0 {
		d.halt.Add(1)
	}
	err := d.group.Wait()
	d.started = false
	return err
}

// Close halts the device and rejects further use.
func (d *Device) Close() error {
	err := d.Halt()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return err
}

func (d *Device) halted() bool {
	return d.halt.Load() != 0
}

func (d *Device) core(pid int) (*memory, error) {
	if pid < 0 || pid >= len(d.local) {
		return nil, fmt.Errorf("%w: %d", ErrNoCore, pid)
	}
	return d.local[pid], nil
}

func (d *Device) ReadLocal(pid int, off uint32, p []byte) error {
	m, err := d.core(pid)
	if err != nil {
		return err
	}
	return m.read(off, p)
}

func (d *Device) WriteLocal(pid int, off uint32, p []byte) error {
	m, err := d.core(pid)
	if err != nil {
		return err
	}
	return m.write(off, p)
}

func (d *Device) ReadExternal(off uint32, p []byte) error {
	return d.ext.read(off, p)
}

func (d *Device) WriteExternal(off uint32, p []byte) error {
	return d.ext.write(off, p)
}

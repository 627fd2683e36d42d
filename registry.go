// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

// registry tracks discovered processors, the subset claimed by Begin and
// which of those are still executing.
type registry struct {
	total   int
	active  int
	running []bool
}

func (r *registry) init(total int) {
	r.total = total
	r.active = 0
	r.running = make([]bool, total)
}

func (r *registry) activate(n int) {
	r.active = n
}

func (r *registry) valid(pid int) bool {
	return pid >= 0 && pid < r.active
}

func (r *registry) setRunning(pid int, running bool) {
	if pid >= 0 && pid < len(r.running) {
		r.running[pid] = running
	}
}

func (r *registry) release() {
	r.active = 0
	r.running = nil
}

// NProcs returns the number of processors discovered at Init,
// independent of the subset passed to Begin.
func (s *Session) NProcs() (int, error) {
	if s.reg.total == 0 {
		return 0, ErrNotInitialized
	}
	return s.reg.total, nil
}

// Active returns the number of processors claimed by Begin.
func (s *Session) Active() int {
	return s.reg.active
}

// Running reports whether pid is executing the program.
func (s *Session) Running(pid int) bool {
	return pid >= 0 && pid < len(s.reg.running) && s.reg.running[pid]
}

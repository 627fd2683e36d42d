// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

// State is the session state machine:
//
//	Uninitialized → Initialized → Running → (Syncing ⇄ Running)* → Ended
type State uint32

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateSyncing
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateSyncing:
		return "syncing"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// lifecycleErr maps the states that forbid an operation to its error.
// It returns nil for Running and Syncing.
func (s State) lifecycleErr() error {
	switch s {
	case StateUninitialized:
		return ErrNotInitialized
	case StateInitialized:
		return ErrNotBegun
	case StateEnded:
		return ErrEnded
	}
	return nil
}

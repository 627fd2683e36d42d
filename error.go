// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import "errors"

// Lifecycle errors.
var (
	ErrNotInitialized = errors.New("ebsp: session not initialized")
	ErrInitialized    = errors.New("ebsp: session already initialized")
	ErrNotBegun       = errors.New("ebsp: processors not begun")
	ErrBegun          = errors.New("ebsp: processors already begun")
	ErrNotStarted     = errors.New("ebsp: program not started")
	ErrStarted        = errors.New("ebsp: program already started")
	ErrEnded          = errors.New("ebsp: session ended")
	ErrNoDevice       = errors.New("ebsp: nil device")
	ErrDeviceLayout   = errors.New("ebsp: device memory too small for runtime layout")
)

// Configuration errors, detected before anything reaches the device.
var (
	ErrInvalidNProcs  = errors.New("ebsp: invalid processor count")
	ErrInvalidPid     = errors.New("ebsp: invalid processor id")
	ErrOutOfRange     = errors.New("ebsp: transfer out of range")
	ErrInvalidTagSize = errors.New("ebsp: invalid tag size")
	ErrTagSize        = errors.New("ebsp: tag length does not match tag size")
	ErrShortBuffer    = errors.New("ebsp: buffer smaller than tag")
)

// Protocol errors: the call is outside the window the protocol allows.
var (
	ErrTagSizeFixed     = errors.New("ebsp: tag size already fixed")
	ErrDownWindowClosed = errors.New("ebsp: down-message window closed")
	ErrBarrierMismatch  = errors.New("ebsp: cores disagree on superstep count")
)

// Capacity and transport errors.
var (
	ErrQueueFull  = errors.New("ebsp: down queue full")
	ErrInboxFull  = errors.New("ebsp: inbox full")
	ErrQueueEmpty = errors.New("ebsp: up queue empty")
	ErrTransport  = errors.New("ebsp: transport failure")
	ErrCoreFailed = errors.New("ebsp: core failed")
)

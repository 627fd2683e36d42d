// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

// Device is the hardware-access layer underneath a [Session].
//
// Offsets are relative to a core's local memory or to the external
// segment; a Device never hands out host pointers into either. A Device
// is used by a single Session and need not be safe for use by several.
type Device interface {
	// Cores reports how many cores the device has.
	Cores() int
	// LocalSize reports the bytes of local memory per core.
	LocalSize() int
	// ExternalSize reports the bytes of the external segment shared by
	// the host and all cores.
	ExternalSize() int

	// Load loads the program image, forwarding args to it.
	Load(image string, args []string) error
	// Start starts the loaded program on cores 0..n-1.
	Start(n int) error
	// Halt stops every started core and waits for it. It reports
	// program failures observed while running.
	Halt() error
	// Close releases the device.
	Close() error

	ReadLocal(pid int, off uint32, p []byte) error
	WriteLocal(pid int, off uint32, p []byte) error
	ReadExternal(off uint32, p []byte) error
	WriteExternal(off uint32, p []byte) error
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/ebsp"
	"code.hybscloud.com/ebsp/emu"
)

func TestNewRequiresDevice(t *testing.T) {
	_, err := ebsp.New(nil)
	require.ErrorIs(t, err, ebsp.ErrNoDevice)
}

func TestNewRejectsBadOptions(t *testing.T) {
	dev, err := emu.New(testPlatform())
	require.NoError(t, err)
	_, err = ebsp.New(dev, ebsp.WithMetrics(nil))
	require.Error(t, err)
	_, err = ebsp.New(dev, ebsp.WithDownQueueCapacity(0))
	require.Error(t, err)
}

func TestSerialMonotonic(t *testing.T) {
	s1, _ := newSession(t, nil)
	s2, _ := newSession(t, nil)
	s3, _ := newSession(t, nil)

	if s1.Serial() >= s2.Serial() {
		t.Fatalf("serials not increasing: %d >= %d", s1.Serial(), s2.Serial())
	}
	if s2.Serial() >= s3.Serial() {
		t.Fatalf("serials not increasing: %d >= %d", s2.Serial(), s3.Serial())
	}
}

func TestLifecycleStates(t *testing.T) {
	s, dev := newSession(t, map[string]emu.Program{"idle": idle})
	assert.Equal(t, ebsp.StateUninitialized, s.State())

	require.NoError(t, s.Init("idle", []string{"--steps", "0"}))
	assert.Equal(t, ebsp.StateInitialized, s.State())
	assert.Equal(t, []string{"--steps", "0"}, dev.Args())
	require.ErrorIs(t, s.Init("idle", nil), ebsp.ErrInitialized)

	require.NoError(t, s.Begin(4))
	assert.Equal(t, ebsp.StateRunning, s.State())
	require.ErrorIs(t, s.Begin(4), ebsp.ErrBegun)

	require.NoError(t, s.Spmd())
	assert.Equal(t, ebsp.StateRunning, s.State())

	require.NoError(t, s.End())
	assert.Equal(t, ebsp.StateEnded, s.State())
	assert.Equal(t, "ended", s.State().String())
}

func TestInitUnknownImage(t *testing.T) {
	s, _ := newSession(t, nil)
	err := s.Init("missing", nil)
	require.ErrorIs(t, err, emu.ErrUnknownImage)
	assert.Equal(t, ebsp.StateUninitialized, s.State())

	n, err := s.NProcs()
	require.NoError(t, err, "a failed Init still allows inspection")
	assert.Equal(t, 4, n)
	require.ErrorIs(t, s.Begin(1), ebsp.ErrNotInitialized)
}

func TestNProcsBeforeInit(t *testing.T) {
	s, _ := newSession(t, nil)
	_, err := s.NProcs()
	require.ErrorIs(t, err, ebsp.ErrNotInitialized)
}

func TestBeginTooManyProcessors(t *testing.T) {
	s, _ := newSession(t, map[string]emu.Program{"idle": idle})
	require.NoError(t, s.Init("idle", nil))

	require.ErrorIs(t, s.Begin(5), ebsp.ErrInvalidNProcs)
	require.ErrorIs(t, s.Begin(0), ebsp.ErrInvalidNProcs)
	assert.Equal(t, ebsp.StateInitialized, s.State())

	ended := false
	s.SetEndCallback(func() { ended = true })
	require.NoError(t, s.End())
	assert.False(t, ended, "end callback runs only after a successful Begin")
}

func TestBeginAfterFailureRecovers(t *testing.T) {
	s, _ := newSession(t, map[string]emu.Program{"idle": idle})
	require.NoError(t, s.Init("idle", nil))
	require.NoError(t, s.SendDown(3, nil, []byte{1}))

	require.ErrorIs(t, s.Begin(2), ebsp.ErrInvalidPid)
	assert.Equal(t, ebsp.StateInitialized, s.State())
	require.NoError(t, s.Begin(4))
	require.NoError(t, s.Spmd())
}

func TestRegistry(t *testing.T) {
	s, _ := newSession(t, map[string]emu.Program{"idle": idle})
	require.NoError(t, s.Init("idle", nil))

	n, err := s.NProcs()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, s.Active())

	require.NoError(t, s.Begin(2))
	n, err = s.NProcs()
	require.NoError(t, err)
	assert.Equal(t, 4, n, "discovered count is independent of the subset")
	assert.Equal(t, 2, s.Active())
	assert.False(t, s.Running(0))

	require.NoError(t, s.Spmd())
	assert.False(t, s.Running(0))
	assert.False(t, s.Running(1))
}

func TestSpmdRequiresBegin(t *testing.T) {
	s, _ := newSession(t, map[string]emu.Program{"idle": idle})
	require.ErrorIs(t, s.Spmd(), ebsp.ErrNotInitialized)
	require.NoError(t, s.Init("idle", nil))
	require.ErrorIs(t, s.Spmd(), ebsp.ErrNotBegun)
	require.NoError(t, s.Begin(1))
	require.NoError(t, s.Spmd())
	require.ErrorIs(t, s.Spmd(), ebsp.ErrStarted)
}

func TestEndTwice(t *testing.T) {
	s := begun(t, "idle", idle, 4)
	calls := 0
	s.SetEndCallback(func() { calls++ })
	require.NoError(t, s.Spmd())

	require.NoError(t, s.End())
	require.ErrorIs(t, s.End(), ebsp.ErrEnded)
	assert.Equal(t, 1, calls)
}

func TestEndedSessionRejectsCalls(t *testing.T) {
	s := begun(t, "idle", idle, 2)
	require.NoError(t, s.End())

	require.ErrorIs(t, s.Write(ebsp.At(0, 0x2000), []byte{1}), ebsp.ErrEnded)
	require.ErrorIs(t, s.SendDown(0, nil, nil), ebsp.ErrEnded)
	_, err := s.SetTagSize(1)
	require.ErrorIs(t, err, ebsp.ErrEnded)
	_, _, err = s.QSize()
	require.ErrorIs(t, err, ebsp.ErrEnded)
	_, err = s.Poll()
	require.ErrorIs(t, err, ebsp.ErrEnded)
	require.ErrorIs(t, s.Init("idle", nil), ebsp.ErrEnded)
	require.ErrorIs(t, s.Begin(1), ebsp.ErrEnded)
}

func TestEndBeforeLaunch(t *testing.T) {
	s := begun(t, "idle", idle, 4)
	require.NoError(t, s.SendDown(0, nil, []byte("unused")))
	require.NoError(t, s.End())
	packets, nbytes := s.Discarded()
	assert.Zero(t, packets)
	assert.Zero(t, nbytes)
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	s := begun(t, "idle", idle, 1, ebsp.WithLogger(log))
	require.Error(t, s.SendDown(1, nil, nil))

	out := buf.String()
	assert.Contains(t, out, `"component":"ebsp"`)
	assert.Contains(t, out, `"message":"down-message rejected"`)
	assert.Contains(t, out, `"level":"warn"`)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp_test

import (
	"testing"

	"code.hybscloud.com/kont"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/ebsp"
	"code.hybscloud.com/ebsp/emu"
	"code.hybscloud.com/ebsp/wire"
)

// testPlatform is a 2×2 mesh: four processors.
func testPlatform() emu.Platform {
	return emu.Platform{Name: "test", Rows: 2, Cols: 2, LocalSize: 16 << 10, ExternalSize: 64 << 10}
}

// newSession creates an uninitialized session on a fresh emulated device
// with programs registered. The session is ended at cleanup if the test
// did not end it.
func newSession(t *testing.T, programs map[string]emu.Program, opts ...ebsp.Option) (*ebsp.Session, *emu.Device) {
	t.Helper()
	dev, err := emu.New(testPlatform())
	require.NoError(t, err)
	for image, prog := range programs {
		dev.Register(image, prog)
	}
	s, err := ebsp.New(dev, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.State() != ebsp.StateEnded {
			_ = s.End()
		}
	})
	return s, dev
}

// begun returns a session running image on n processors, not yet launched.
func begun(t *testing.T, image string, prog emu.Program, n int, opts ...ebsp.Option) *ebsp.Session {
	t.Helper()
	s, _ := newSession(t, map[string]emu.Program{image: prog}, opts...)
	require.NoError(t, s.Init(image, nil))
	require.NoError(t, s.Begin(n))
	return s
}

// upMessage is one drained up-message.
type upMessage struct {
	Tag     string
	Payload []byte
}

// drain pops every queued up-message with HPMove.
func drain(t *testing.T, s *ebsp.Session) []upMessage {
	t.Helper()
	var out []upMessage
	for {
		packets, _, err := s.QSize()
		require.NoError(t, err)
		if packets == 0 {
			return out
		}
		tag, payload, err := s.HPMove()
		require.NoError(t, err)
		out = append(out, upMessage{Tag: string(tag), Payload: append([]byte(nil), payload...)})
	}
}

// echo sets the up tag size and sends every down-message back unchanged.
func echo(tagSize int) emu.Program {
	return func(emu.Env) kont.Eff[struct{}] {
		return emu.SetTagSizeThen(tagSize, emu.InboxBind(func(msgs []wire.Message) kont.Eff[struct{}] {
			return emu.Loop(msgs, func(rest []wire.Message) kont.Eff[kont.Either[[]wire.Message, struct{}]] {
				if len(rest) == 0 {
					return kont.Pure(kont.Right[[]wire.Message, struct{}](struct{}{}))
				}
				return emu.SendUpThen(rest[0].Tag, rest[0].Payload,
					kont.Pure(kont.Left[[]wire.Message, struct{}](rest[1:])))
			})
		}))
	}
}

// stepper runs n supersteps; in each, the core sends its pid as tag and
// the superstep number as payload.
func stepper(n int) emu.Program {
	return func(env emu.Env) kont.Eff[struct{}] {
		return emu.SetTagSizeThen(1, emu.Supersteps(n, func(step int) kont.Eff[struct{}] {
			return emu.SendUpThen([]byte{byte(env.Pid)}, []byte{byte(step)}, emu.Done())
		}))
	}
}

// idle finishes immediately.
func idle(emu.Env) kont.Eff[struct{}] {
	return emu.Done()
}

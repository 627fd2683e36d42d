// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"
)

// defaultDownQueueCapacity bounds the staged down-messages per processor.
// The inbox region usually fills before the queue does.
const defaultDownQueueCapacity = 64

// Option configures a Session at construction.
type Option func(*Session) error

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) error {
		s.log = log
		return nil
	}
}

// WithMetrics sets the metrics sink. The default is a no-op collector.
func WithMetrics(m Metrics) Option {
	return func(s *Session) error {
		if m == nil {
			return fmt.Errorf("nil is not a valid Metrics")
		}
		s.metrics = m
		return nil
	}
}

// WithDownQueueCapacity bounds how many down-messages may be staged per
// processor. The capacity is rounded up to a power of two.
func WithDownQueueCapacity(capacity int) Option {
	return func(s *Session) error {
		if capacity < 1 {
			return fmt.Errorf("down queue capacity must be positive")
		}
		s.downCapacity = roundPow2(capacity)
		return nil
	}
}

func roundPow2(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import "time"

// NoopCollector discards every event.
type NoopCollector struct{}

func (NoopCollector) DownSent(int) {}
func (NoopCollector) UpCollected(int, int) {}
func (NoopCollector) UpDrained(int) {}
func (NoopCollector) UpDiscarded(int, int) {}
func (NoopCollector) Superstep(time.Duration) {}
func (NoopCollector) Transfer(string, int) {}

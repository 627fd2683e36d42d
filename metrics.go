// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ebsp

import (
	"time"

	"code.hybscloud.com/ebsp/metrics"
)

var (
	_ Metrics = (*metrics.Collector)(nil)
	_ Metrics = metrics.NoopCollector{}
)

// Metrics receives session events. Implementations must not block.
// See package code.hybscloud.com/ebsp/metrics for a prometheus collector.
type Metrics interface {
	// DownSent records one accepted down-message.
	DownSent(nbytes int)
	// UpCollected records up-messages ingested at a barrier.
	UpCollected(packets, nbytes int)
	// UpDrained records one up-message popped by the host.
	UpDrained(nbytes int)
	// UpDiscarded records up-messages still queued at End.
	UpDiscarded(packets, nbytes int)
	// Superstep records one barrier crossing and the time since the
	// previous release.
	Superstep(elapsed time.Duration)
	// Transfer records one Session.Write or Session.Read; op is "read" or
	// "write". Runtime traffic is not counted.
	Transfer(op string, nbytes int)
}

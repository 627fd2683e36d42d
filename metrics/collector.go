// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics provides prometheus and no-op implementations of
// ebsp.Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ebsp"

	subsystemDown     = "down"
	subsystemUp       = "up"
	subsystemSync     = "sync"
	subsystemTransfer = "transfer"

	LabelOp = "op"
)

// Collector exports session events as prometheus metrics.
type Collector struct {
	downSent      prometheus.Counter
	downBytes     prometheus.Counter
	upCollected   prometheus.Counter
	upDrained     prometheus.Counter
	upDiscarded   prometheus.Counter
	upBytes       *prometheus.CounterVec
	supersteps    prometheus.Counter
	superstepTime prometheus.Histogram
	transferBytes *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		downSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDown,
			Name:      "messages_sent_total",
			Help:      "the number of down-messages accepted for delivery",
		}),
		downBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDown,
			Name:      "payload_bytes_total",
			Help:      "the payload bytes of accepted down-messages",
		}),
		upCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemUp,
			Name:      "messages_collected_total",
			Help:      "the number of up-messages ingested from core outboxes",
		}),
		upDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemUp,
			Name:      "messages_drained_total",
			Help:      "the number of up-messages popped by the host",
		}),
		upDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemUp,
			Name:      "messages_discarded_total",
			Help:      "the number of up-messages left undrained at session end",
		}),
		upBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemUp,
			Name:      "payload_bytes_total",
			Help:      "the payload bytes of up-messages by operation",
		}, []string{LabelOp}),
		supersteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSync,
			Name:      "supersteps_total",
			Help:      "the number of barriers crossed",
		}),
		superstepTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemSync,
			Name:      "superstep_seconds",
			Help:      "time between consecutive barrier releases",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}),
		transferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemTransfer,
			Name:      "bytes_total",
			Help:      "the bytes moved by host Write and Read calls",
		}, []string{LabelOp}),
	}
	for _, col := range []prometheus.Collector{
		c.downSent, c.downBytes, c.upCollected, c.upDrained, c.upDiscarded,
		c.upBytes, c.supersteps, c.superstepTime, c.transferBytes,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) DownSent(nbytes int) {
	c.downSent.Inc()
	c.downBytes.Add(float64(nbytes))
}

func (c *Collector) UpCollected(packets, nbytes int) {
	c.upCollected.Add(float64(packets))
	c.upBytes.With(prometheus.Labels{LabelOp: "collected"}).Add(float64(nbytes))
}

func (c *Collector) UpDrained(nbytes int) {
	c.upDrained.Inc()
	c.upBytes.With(prometheus.Labels{LabelOp: "drained"}).Add(float64(nbytes))
}

func (c *Collector) UpDiscarded(packets, nbytes int) {
	c.upDiscarded.Add(float64(packets))
	c.upBytes.With(prometheus.Labels{LabelOp: "discarded"}).Add(float64(nbytes))
}

func (c *Collector) Superstep(elapsed time.Duration) {
	c.supersteps.Inc()
	c.superstepTime.Observe(elapsed.Seconds())
}

func (c *Collector) Transfer(op string, nbytes int) {
	c.transferBytes.With(prometheus.Labels{LabelOp: op}).Add(float64(nbytes))
}

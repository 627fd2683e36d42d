// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/ebsp/metrics"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	c.DownSent(3)
	c.DownSent(5)
	c.UpCollected(2, 30)
	c.UpDrained(10)
	c.UpDiscarded(1, 20)
	c.Superstep(time.Millisecond)
	c.Transfer("write", 64)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Positive(t, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, 2.0, values["ebsp_down_messages_sent_total"])
	require.Equal(t, 8.0, values["ebsp_down_payload_bytes_total"])
	require.Equal(t, 2.0, values["ebsp_up_messages_collected_total"])
	require.Equal(t, 1.0, values["ebsp_up_messages_drained_total"])
	require.Equal(t, 1.0, values["ebsp_up_messages_discarded_total"])
	require.Equal(t, 60.0, values["ebsp_up_payload_bytes_total"])
	require.Equal(t, 1.0, values["ebsp_sync_supersteps_total"])
	require.Equal(t, 64.0, values["ebsp_transfer_bytes_total"])
}

func TestCollectorDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	_, err = metrics.NewCollector(reg)
	require.Error(t, err)
}

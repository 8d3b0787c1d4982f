// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lottery

import (
	"github.com/prometheus/client_golang/prometheus"
	m "github.com/vrflottery/lottery/pkg/metrics"
)

type metrics struct {
	Entries      prometheus.Counter
	Starts       prometheus.Counter
	Ends         prometheus.Counter
	FailedWrites prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "lottery"

	return metrics{
		Entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "entries_total",
			Help:      "Number of successful lottery entries.",
		}),
		Starts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "starts_total",
			Help:      "Number of lottery rounds started.",
		}),
		Ends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "ends_total",
			Help:      "Number of lottery rounds ended with a randomness request.",
		}),
		FailedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "failed_writes_total",
			Help:      "Number of lottery transactions that failed or reverted.",
		}),
	}
}

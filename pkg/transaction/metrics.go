// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transaction

import (
	"github.com/prometheus/client_golang/prometheus"
	m "github.com/vrflottery/lottery/pkg/metrics"
)

type metrics struct {
	SentTransactions prometheus.Counter
	SendErrors       prometheus.Counter
	Reverted         prometheus.Counter
	Calls            prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "transaction"

	return metrics{
		SentTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "sent_transactions",
			Help:      "Number of transactions broadcast to the backend.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "send_errors",
			Help:      "Number of transactions that could not be prepared or broadcast.",
		}),
		Reverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "reverted",
			Help:      "Number of transactions and calls rejected by the EVM.",
		}),
		Calls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "calls",
			Help:      "Number of read-only contract calls.",
		}),
	}
}

func (t *transactionService) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(t.metrics)
}

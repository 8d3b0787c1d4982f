// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api exposes a read-only HTTP view of a deployed lottery together
// with the prometheus metrics of the process.
package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/lottery"
	"github.com/vrflottery/lottery/pkg/ratelimit"
)

// Version is the version of the HTTP API.
const Version = "1.0.0"

type Service interface {
	http.Handler
	Metrics() []prometheus.Collector
	MustRegisterMetrics(cs ...prometheus.Collector)
}

type server struct {
	Options
	http.Handler
	metrics         metrics
	metricsRegistry *prometheus.Registry
	limiter         *ratelimit.Limiter
}

type Options struct {
	Lottery lottery.Service
	Network string
	Logger  logging.Logger
	// RateLimit is the interval at which a client regains one lottery
	// request. Unlimited if zero.
	RateLimit time.Duration
	RateBurst int
}

func New(o Options) Service {
	s := &server{
		Options:         o,
		metrics:         newMetrics(),
		metricsRegistry: newMetricsRegistry(),
	}
	if o.RateLimit > 0 {
		burst := o.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = ratelimit.New(o.RateLimit, burst)
	}
	s.MustRegisterMetrics(s.Metrics()...)
	s.setupRouting()
	return s
}

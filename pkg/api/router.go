// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"resenje.org/web"

	"github.com/vrflottery/lottery/pkg/jsonhttp"
	"github.com/vrflottery/lottery/pkg/logging/httpaccess"
)

func (s *server) setupRouting() {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(jsonhttp.NotFoundHandler)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "VRF Lottery")
	})

	router.Path("/metrics").Handler(web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandler(promhttp.InstrumentMetricHandler(
			s.metricsRegistry,
			promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}),
		)),
	))

	router.Handle("/health", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandler(jsonhttp.MethodHandler{
			"GET": http.HandlerFunc(s.healthHandler),
		}),
	))

	router.Handle("/lottery", web.ChainHandlers(
		s.rateLimitHandler,
		web.FinalHandler(jsonhttp.MethodHandler{
			"GET": http.HandlerFunc(s.lotteryHandler),
		}),
	))

	router.Handle("/lottery/players/{index}", web.ChainHandlers(
		s.rateLimitHandler,
		web.FinalHandler(jsonhttp.MethodHandler{
			"GET": http.HandlerFunc(s.playerHandler),
		}),
	))

	s.Handler = web.ChainHandlers(
		httpaccess.NewHTTPAccessLogHandler(s.Logger, logrus.InfoLevel, "api access"),
		handlers.CompressHandler,
		s.responseCodeMetricsHandler,
		s.pageviewMetricsHandler,
		web.NoCacheHeadersHandler,
		web.FinalHandler(router),
	)
}

// rateLimitHandler limits lottery reads per client address.
func (s *server) rateLimitHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			h.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiter.Allow(ip, 1) {
			s.metrics.RateLimited.Inc()
			jsonhttp.TooManyRequests(w, "too many requests")
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vrflottery/lottery/pkg/lottery/mock"
	m "github.com/vrflottery/lottery/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	client := newTestServer(t, testServerOptions{Lottery: mock.New()})

	request(t, client, http.MethodGet, "/health", http.StatusOK)
	body := string(request(t, client, http.MethodGet, "/metrics", http.StatusOK))

	for _, want := range []string{
		m.Namespace + "_info",
		m.Namespace + "_api_request_count",
		m.Namespace + `_api_response_code_count{code="200",method="GET"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics do not contain %q", want)
		}
	}
}

func TestMustRegisterMetrics(t *testing.T) {
	s := newAPIService(t)
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.Namespace,
		Name:      "test_total",
		Help:      "Test counter.",
	})
	s.MustRegisterMetrics(c)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	s.MustRegisterMetrics(c)
}

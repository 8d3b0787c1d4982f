// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/vrflottery/lottery/pkg/logging"
)

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logrus.InfoLevel)

	logger.Debugf("hidden %d", 1)
	logger.Infof("lottery %s deployed", "0xabcd")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "lottery 0xabcd deployed") {
		t.Fatalf("info message missing: %q", out)
	}
}

func TestLoggerMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logrus.TraceLevel)

	logger.Warning("low link balance")
	logger.Warning("low link balance")
	logger.Error("reverted")

	collector, ok := logger.(interface{ Metrics() []prometheus.Collector })
	if !ok {
		t.Fatal("logger does not expose metrics")
	}

	var warn, errs float64
	for _, c := range collector.Metrics() {
		counter, ok := c.(prometheus.Counter)
		if !ok {
			continue
		}
		desc := counter.Desc().String()
		switch {
		case strings.Contains(desc, "warn_count"):
			warn = testutil.ToFloat64(counter)
		case strings.Contains(desc, "error_count"):
			errs = testutil.ToFloat64(counter)
		}
	}
	if warn != 2 {
		t.Errorf("got %v warnings, want 2", warn)
	}
	if errs != 1 {
		t.Errorf("got %v errors, want 1", errs)
	}
}

// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"resenje.org/web"

	"github.com/vrflottery/lottery/pkg/api"
	"github.com/vrflottery/lottery/pkg/logging"
	"github.com/vrflottery/lottery/pkg/lottery"
)

type testServerOptions struct {
	Lottery   lottery.Service
	Network   string
	RateLimit time.Duration
	RateBurst int
}

func newTestServer(t *testing.T, o testServerOptions) *http.Client {
	t.Helper()

	s := api.New(api.Options{
		Lottery:   o.Lottery,
		Network:   o.Network,
		Logger:    logging.New(io.Discard, logrus.ErrorLevel),
		RateLimit: o.RateLimit,
		RateBurst: o.RateBurst,
	})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	return &http.Client{
		Transport: web.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			u, err := url.Parse(ts.URL + r.URL.String())
			if err != nil {
				return nil, err
			}
			r.URL = u
			return ts.Client().Transport.RoundTrip(r)
		}),
	}
}

func request(t *testing.T, client *http.Client, method, url string, wantCode int) []byte {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantCode {
		t.Errorf("got response status %s, want %v %s", resp.Status, wantCode, http.StatusText(wantCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newAPIService(t *testing.T) api.Service {
	t.Helper()

	return api.New(api.Options{
		Logger: logging.New(io.Discard, logrus.ErrorLevel),
	})
}

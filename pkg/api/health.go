// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	vrflottery "github.com/vrflottery/lottery"
	"github.com/vrflottery/lottery/pkg/jsonhttp"
)

type healthStatusResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	Network    string `json:"network,omitempty"`
}

func (s *server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	jsonhttp.OK(w, healthStatusResponse{
		Status:     "ok",
		Version:    vrflottery.Version,
		APIVersion: Version,
		Network:    s.Network,
	})
}

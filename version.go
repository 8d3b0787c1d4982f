// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lottery holds build information of the lottery client.
package lottery

var (
	version    = "0.1.0" // manually set semantic version number
	commitHash string    // automatically set git commit hash

	Version = func() string {
		if commitHash != "" {
			return version + "-" + commitHash
		}
		return version + "-dev"
	}()
)

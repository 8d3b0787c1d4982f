// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import "io"

type (
	Command = command
	Option  = option
)

var (
	NewCommand       = newCommand
	EntryValue       = entryValue
	UniqueAccounts   = uniqueAccounts
	CountPlayers     = countPlayers
	ReadStatus       = readStatus
	RequestKey       = requestKey
	ErrNoRequest     = errNoRequest
	ErrBadRandomness = errRandomnessMalformed
)

func WithHomeDir(dir string) func(c *Command) {
	return func(c *Command) {
		c.homeDir = dir
	}
}

func WithArgs(a ...string) func(c *Command) {
	return func(c *Command) {
		c.root.SetArgs(a)
	}
}

func WithOutput(w io.Writer) func(c *Command) {
	return func(c *Command) {
		c.root.SetOut(w)
	}
}

// WriteStatus renders the status of a lottery as the status command does.
func WriteStatus(st interface{}, w io.Writer) error {
	return st.(*status).write(w)
}

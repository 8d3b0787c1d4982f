// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	vrflottery "github.com/vrflottery/lottery"
	"github.com/vrflottery/lottery/cmd/lottery/cmd"
)

func TestVersionCmd(t *testing.T) {
	var outputBuf bytes.Buffer
	err := newCommand(t,
		cmd.WithArgs("version"),
		cmd.WithOutput(&outputBuf),
	).Execute()
	require.NoError(t, err)
	require.Equal(t, vrflottery.Version+"\n", outputBuf.String())
}

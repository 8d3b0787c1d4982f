// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contracts_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vrflottery/lottery/pkg/contracts"
)

func artifactFile(bytecode string) []byte {
	return []byte(`{"contractName":"LinkToken","abi":` + contracts.LinkTokenABI + `,"bytecode":"` + bytecode + `"}`)
}

func TestParseArtifact(t *testing.T) {
	for _, tc := range []struct {
		name     string
		bytecode string
		want     []byte
		err      error
	}{
		{name: "prefixed", bytecode: "0x6080", want: []byte{0x60, 0x80}},
		{name: "bare", bytecode: "6080", want: []byte{0x60, 0x80}},
		{name: "empty", bytecode: "", err: contracts.ErrNoBytecode},
		{name: "only prefix", bytecode: "0x", err: contracts.ErrNoBytecode},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := contracts.ParseArtifact("x", artifactFile(tc.bytecode))
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("got error %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if a.Name != contracts.LinkTokenName {
				t.Fatalf("got name %s, want %s", a.Name, contracts.LinkTokenName)
			}
			if !bytes.Equal(a.Bytecode, tc.want) {
				t.Fatalf("got bytecode %x, want %x", a.Bytecode, tc.want)
			}
			if _, ok := a.ABI.Methods["transferAndCall"]; !ok {
				t.Fatal("abi missing transferAndCall")
			}
		})
	}
}

func TestDirSource(t *testing.T) {
	t.Run("brownie", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "contracts"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "contracts", "LinkToken.json"), artifactFile("0x01"), 0o644); err != nil {
			t.Fatal(err)
		}
		a, err := contracts.NewDirSource(dir).Artifact(contracts.LinkTokenName)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Bytecode, []byte{1}) {
			t.Fatalf("got bytecode %x", a.Bytecode)
		}
	})

	t.Run("hardhat", func(t *testing.T) {
		dir := t.TempDir()
		sol := filepath.Join(dir, "contracts", "LinkToken.sol")
		if err := os.MkdirAll(sol, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sol, "LinkToken.json"), artifactFile("02"), 0o644); err != nil {
			t.Fatal(err)
		}
		a, err := contracts.NewDirSource(dir).Artifact(contracts.LinkTokenName)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Bytecode, []byte{2}) {
			t.Fatalf("got bytecode %x", a.Bytecode)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := contracts.NewDirSource(t.TempDir()).Artifact(contracts.LotteryName)
		if !errors.Is(err, contracts.ErrArtifactNotFound) {
			t.Fatalf("got error %v, want %v", err, contracts.ErrArtifactNotFound)
		}
	})
}

// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound = errors.New("contracts: artifact not found")
	ErrNoBytecode       = errors.New("contracts: artifact has no bytecode")
)

// Artifact is a compiled contract ready for deployment.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// ArtifactSource resolves compiled contracts by name.
type ArtifactSource interface {
	Artifact(name string) (*Artifact, error)
}

type artifactJSON struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// ParseArtifact decodes a brownie or hardhat build output file.
func ParseArtifact(name string, data []byte) (*Artifact, error) {
	var a artifactJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	if a.ContractName != "" {
		name = a.ContractName
	}
	parsed, err := abi.JSON(strings.NewReader(string(a.ABI)))
	if err != nil {
		return nil, fmt.Errorf("parse abi of %s: %w", name, err)
	}
	code := strings.TrimSpace(a.Bytecode)
	if code == "" || code == "0x" {
		return nil, fmt.Errorf("%s: %w", name, ErrNoBytecode)
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", name, err)
	}
	return &Artifact{
		Name:     name,
		ABI:      parsed,
		Bytecode: bytecode,
	}, nil
}

type dirSource struct {
	dir string
}

// NewDirSource returns a source reading artifacts from a build directory.
func NewDirSource(dir string) ArtifactSource {
	return &dirSource{dir: dir}
}

func (s *dirSource) Artifact(name string) (*Artifact, error) {
	candidates := []string{
		filepath.Join(s.dir, name+".json"),
		filepath.Join(s.dir, "contracts", name+".json"),
		filepath.Join(s.dir, "contracts", name+".sol", name+".json"),
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		return ParseArtifact(name, data)
	}
	return nil, fmt.Errorf("%s in %s: %w", name, s.dir, ErrArtifactNotFound)
}

// MapSource is an in-memory artifact source.
type MapSource map[string]*Artifact

func (m MapSource) Artifact(name string) (*Artifact, error) {
	a, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
	}
	return a, nil
}

// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vrflottery/lottery/pkg/transaction"
)

// DeployData returns the creation bytecode with packed constructor
// arguments appended.
func DeployData(artifact *Artifact, args ...interface{}) ([]byte, error) {
	packed, err := artifact.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor of %s: %w", artifact.Name, err)
	}
	data := make([]byte, 0, len(artifact.Bytecode)+len(packed))
	data = append(data, artifact.Bytecode...)
	return append(data, packed...), nil
}

// Deploy creates the contract and waits until it is mined.
func Deploy(ctx context.Context, ts transaction.Service, artifact *Artifact, args ...interface{}) (common.Address, *types.Receipt, error) {
	data, err := DeployData(artifact, args...)
	if err != nil {
		return common.Address{}, nil, err
	}

	txHash, err := ts.Send(ctx, &transaction.TxRequest{
		To:          nil,
		Data:        data,
		Description: "deploy " + artifact.Name,
	})
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploy %s: %w", artifact.Name, err)
	}

	receipt, err := ts.WaitForReceipt(ctx, txHash)
	if err != nil {
		return common.Address{}, nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, receipt, fmt.Errorf("deploy %s: %w", artifact.Name, transaction.ErrTransactionReverted)
	}
	return receipt.ContractAddress, receipt, nil
}

// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package units converts between wei and the decimal denominations used in
// configuration files and on the command line.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a power-of-ten exponent relative to wei.
type Unit int32

const (
	Wei   Unit = 0
	Gwei  Unit = 9
	Ether Unit = 18
	// Link is the LINK token, which uses 18 decimals like ether.
	Link Unit = 18
)

var (
	ErrNegativeAmount    = errors.New("negative amount")
	ErrFractionalWei     = errors.New("amount has more precision than wei")
	ErrUnknownDenomation = errors.New("unknown denomination")
)

// ParseUnit maps a denomination name to its Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wei", "":
		return Wei, nil
	case "gwei":
		return Gwei, nil
	case "ether", "eth":
		return Ether, nil
	case "link":
		return Link, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDenomation, s)
}

// ToWei converts a decimal amount in the given unit to wei.
// ToWei("0.025", Ether) is 25000000000000000.
func ToWei(amount string, unit Unit) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return DecimalToWei(d, unit)
}

// DecimalToWei converts d expressed in unit to wei.
func DecimalToWei(d decimal.Decimal, unit Unit) (*big.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	wei := d.Shift(int32(unit))
	if !wei.Equal(wei.Truncate(0)) {
		return nil, ErrFractionalWei
	}
	return wei.BigInt(), nil
}

// MustToWei is ToWei for constants known to be valid.
func MustToWei(amount string, unit Unit) *big.Int {
	v, err := ToWei(amount, unit)
	if err != nil {
		panic(err)
	}
	return v
}

// FromWei converts wei to a decimal amount in the given unit.
func FromWei(wei *big.Int, unit Unit) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -int32(unit))
}

// ParseAmount parses an amount with an optional denomination suffix, such as
// "0.1 link", "25000000000000000" or "0.025ether".
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-'
	})
	if i < 0 {
		return ToWei(s, Wei)
	}
	unit, err := ParseUnit(s[i:])
	if err != nil {
		return nil, err
	}
	return ToWei(s[:i], unit)
}

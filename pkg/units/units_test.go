// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package units_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/vrflottery/lottery/pkg/units"
)

func TestToWei(t *testing.T) {
	for _, tc := range []struct {
		amount string
		unit   units.Unit
		want   string
		err    error
	}{
		{"0.025", units.Ether, "25000000000000000", nil},
		{"0.1", units.Link, "100000000000000000", nil},
		{"50", units.Ether, "50000000000000000000", nil},
		{"2", units.Gwei, "2000000000", nil},
		{"777", units.Wei, "777", nil},
		{"0.5", units.Wei, "", units.ErrFractionalWei},
		{"-1", units.Ether, "", units.ErrNegativeAmount},
	} {
		t.Run(tc.amount, func(t *testing.T) {
			got, err := units.ToWei(tc.amount, tc.unit)
			if !errors.Is(err, tc.err) {
				t.Fatalf("got error %v, want %v", err, tc.err)
			}
			if tc.err != nil {
				return
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFromWei(t *testing.T) {
	got := units.FromWei(big.NewInt(25000000000000000), units.Ether)
	if got.String() != "0.025" {
		t.Fatalf("got %s, want 0.025", got)
	}
	if s := units.FromWei(nil, units.Ether).String(); s != "0" {
		t.Fatalf("got %s for nil, want 0", s)
	}
}

func TestParseAmount(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"0.1 link", "100000000000000000"},
		{"0.025ether", "25000000000000000"},
		{"100000000", "100000000"},
		{"1 gwei", "1000000000"},
	} {
		got, err := units.ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := units.ParseAmount("1 doge"); !errors.Is(err, units.ErrUnknownDenomation) {
		t.Fatalf("got error %v, want %v", err, units.ErrUnknownDenomation)
	}
}

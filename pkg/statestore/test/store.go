// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test holds a shared suite run against every StateStorer
// implementation.
package test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vrflottery/lottery/pkg/storage"
)

const (
	key1 = "deployment_1337_lottery"
	key2 = "deployment_1337_link_token"
)

type record struct {
	Address string `json:"address"`
	Block   uint64  `json:"block"`
}

func testStoreRecord() record {
	return record{
		Address: "0x8f4a04b93b6e1b0fc4e7a1f8b10b0d4ad3b9c6e1",
		Block:   12,
	}
}

// Run executes the common store test cases against the store returned by
// the factory.
func Run(t *testing.T, f func(t *testing.T) storage.StateStorer) {
	t.Helper()

	t.Run("put_get", func(t *testing.T) { testPutGet(t, f(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, f(t)) })
	t.Run("iterate", func(t *testing.T) { testIterate(t, f(t)) })
	t.Run("iterate_stop", func(t *testing.T) { testIterateStop(t, f(t)) })
}

func testPutGet(t *testing.T, store storage.StateStorer) {
	t.Helper()
	defer store.Close()

	want := testStoreRecord()
	if err := store.Put(key1, want); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := store.Get(key1, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	err := store.Get("missing", &got)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
	}
}

func testDelete(t *testing.T, store storage.StateStorer) {
	t.Helper()
	defer store.Close()

	if err := store.Put(key1, testStoreRecord()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(key1); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := store.Get(key1, &got); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
	}
}

func testIterate(t *testing.T, store storage.StateStorer) {
	t.Helper()
	defer store.Close()

	for i, k := range []string{key1, key2, "nonce_1337"} {
		if err := store.Put(k, i); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	err := store.Iterate("deployment_1337_", func(k, v []byte) (bool, error) {
		if !strings.HasPrefix(string(k), "deployment_1337_") {
			return true, fmt.Errorf("wrong prefix for key %s", k)
		}
		keys = append(keys, string(k))
		return false, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
}

func testIterateStop(t *testing.T, store storage.StateStorer) {
	t.Helper()
	defer store.Close()

	for i, k := range []string{key1, key2} {
		if err := store.Put(k, i); err != nil {
			t.Fatal(err)
		}
	}

	var calls int
	err := store.Iterate("deployment_", func(k, v []byte) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
}

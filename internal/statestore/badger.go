// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package statestore persists small pieces of daemon state (the cloud
// credential, the TV pairing token) in BadgerDB so they survive restarts.
package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/token"
)

// Keys for BadgerDB storage.
const (
	credentialKey = "state:credential"
	tvTokenKey    = "state:tv_token"
)

// Store is a BadgerDB-backed state store. It implements token.StateStore.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing BadgerDB handle. Used by tests.
func NewWithDB(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCredential persists the cloud credential.
func (s *Store) SaveCredential(_ context.Context, cred *token.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(credentialKey), data)
	})
}

// LoadCredential returns the persisted credential, or nil when none exists.
func (s *Store) LoadCredential(_ context.Context) (*token.Credential, error) {
	var cred token.Credential
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(credentialKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get credential: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cred)
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cred, nil
}

// SaveTVToken persists the TV pairing token issued on first connect.
func (s *Store) SaveTVToken(_ context.Context, tok string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tvTokenKey), []byte(tok))
	})
}

// LoadTVToken returns the persisted pairing token, or empty when none exists.
func (s *Store) LoadTVToken(_ context.Context) (string, error) {
	var tok string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tvTokenKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get tv token: %w", err)
		}
		return item.Value(func(val []byte) error {
			tok = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return tok, nil
}

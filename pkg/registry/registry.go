/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

// Package registry implements the administrative mutations on the key
// registry: read-modify-write cycles against the backing object through
// the envelope codec.
//
// Mutations carry no optimistic concurrency check - there is no version
// token and no conditional write. Two concurrent mutations that read the
// same prior state are last-writer-wins: the later put silently discards
// the earlier one. This is an accepted limitation given the registry's
// low mutation frequency and single-administrator usage; callers wanting
// stronger guarantees need a conditional write in the object store.
package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/envelope"
	"github.com/keyreg-io/keyreg/pkg/keygen"
	"github.com/keyreg-io/keyreg/pkg/models"
	"github.com/keyreg-io/keyreg/pkg/objstore"
)

// pairGenerator produces a fresh id/secret pair; replaceable in tests to
// force collisions
type pairGenerator func() (id, secret string, err error)

// Manager performs administrative create/delete/list operations against
// the registry object
type Manager struct {
	store   objstore.Store
	codec   *envelope.Codec
	logger  *zap.Logger
	genPair pairGenerator
	now     func() time.Time
}

// NewManager creates a mutation manager
func NewManager(store objstore.Store, codec *envelope.Codec, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		codec:   codec,
		logger:  logger,
		genPair: keygen.NewPair,
		now:     time.Now,
	}
}

// load reads and decodes the current document, treating a missing object
// as the empty registry
func (m *Manager) load(ctx context.Context) (*models.RegistryDocument, error) {
	data, err := m.store.Get(ctx)
	if err != nil {
		if objstore.IsNotFoundError(err) {
			return models.NewRegistryDocument(), nil
		}
		return nil, err
	}
	return m.codec.Decode(data)
}

// save encodes and writes the document back
func (m *Manager) save(ctx context.Context, doc *models.RegistryDocument) error {
	data, err := m.codec.Encode(doc)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, data)
}

// Create generates a fresh key record and commits it to the registry
// object. The returned record is the only place the plaintext secret is
// ever produced for display; it is not stored anywhere else and cannot be
// recovered later.
func (m *Manager) Create(ctx context.Context, name string, metadata map[string]string,
	secretType models.SecretType, expiresAt *time.Time) (*models.KeyRecord, error) {
	doc, err := m.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	if secretType == "" {
		secretType = models.SecretTypeSharedSecret
	}

	rec, err := m.newRecord(name, metadata, secretType, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := doc.Add(*rec); err != nil {
		if !models.IsDuplicateKeyError(err) {
			return nil, err
		}
		// An entropy collision is astronomically unlikely; regenerate
		// once before surfacing the error.
		rec, err = m.newRecord(name, metadata, secretType, expiresAt)
		if err != nil {
			return nil, err
		}
		if err := doc.Add(*rec); err != nil {
			return nil, fmt.Errorf("failed to add key after regeneration: %w", err)
		}
	}

	if err := m.save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to write registry: %w", err)
	}

	m.logger.Info("Created API key",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("registry_size", doc.Len()))

	return rec, nil
}

func (m *Manager) newRecord(name string, metadata map[string]string,
	secretType models.SecretType, expiresAt *time.Time) (*models.KeyRecord, error) {
	id, secret, err := m.genPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &models.KeyRecord{
		ID:         id,
		Secret:     secret,
		Name:       name,
		CreatedAt:  m.now().UTC(),
		ExpiresAt:  expiresAt,
		SecretType: secretType,
		Metadata:   metadata,
	}, nil
}

// Delete removes the record with the given id from the registry object.
// It returns models.ErrKeyNotFound when no such record exists; nothing is
// written in that case.
func (m *Manager) Delete(ctx context.Context, id string) error {
	doc, err := m.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if err := doc.Remove(id); err != nil {
		return err
	}

	if err := m.save(ctx, doc); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	m.logger.Info("Deleted API key",
		zap.String("id", id),
		zap.Int("registry_size", doc.Len()))

	return nil
}

// List returns all records currently in the registry object
func (m *Manager) List(ctx context.Context) ([]models.KeyRecord, error) {
	doc, err := m.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return doc.Keys, nil
}

// Get returns the record with the given id, or models.ErrKeyNotFound
func (m *Manager) Get(ctx context.Context, id string) (*models.KeyRecord, error) {
	doc, err := m.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	rec, ok := doc.Get(id)
	if !ok {
		return nil, models.ErrKeyNotFound
	}
	return rec, nil
}

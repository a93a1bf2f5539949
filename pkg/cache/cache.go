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

// Package cache holds the serving process's in-memory projection of the
// registry: a secret index and an id index built together from one decoded
// document and published together, so a lookup never observes one index
// reflecting an older document than the other.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/envelope"
	"github.com/keyreg-io/keyreg/pkg/models"
	"github.com/keyreg-io/keyreg/pkg/objstore"
)

// VerifyStatus is the outcome of a verification-time secret lookup
type VerifyStatus int

// Defines values for VerifyStatus. Expired and NotFound must be reported
// identically to external callers; the distinction exists for the audit
// log only.
const (
	VerifyValid VerifyStatus = iota
	VerifyExpired
	VerifyNotFound
)

// snapshot is one immutable projection of a registry document. Both maps
// are built fully before the snapshot is published and never mutated
// afterwards.
type snapshot struct {
	bySecret map[string]*models.KeyRecord
	byID     map[string]*models.KeyRecord
	records  []models.KeyRecord
}

// Cache is the read-optimized in-memory registry. Lookups are lock-free:
// they read whichever snapshot is currently installed. Load builds a new
// snapshot off to the side and installs it with a single pointer swap.
type Cache struct {
	store   objstore.Store
	codec   *envelope.Codec
	logger  *zap.Logger
	current atomic.Pointer[snapshot]
	now     func() time.Time
}

// New creates an empty cache. Serving before the first successful Load
// resolves every lookup as not found.
func New(store objstore.Store, codec *envelope.Codec, logger *zap.Logger) *Cache {
	c := &Cache{
		store:  store,
		codec:  codec,
		logger: logger,
		now:    time.Now,
	}
	c.current.Store(emptySnapshot())
	return c
}

func emptySnapshot() *snapshot {
	return &snapshot{
		bySecret: map[string]*models.KeyRecord{},
		byID:     map[string]*models.KeyRecord{},
		records:  []models.KeyRecord{},
	}
}

// Load reads the registry object, decodes it and atomically replaces the
// current snapshot, returning the number of records loaded. A missing
// object is the valid empty state and loads zero records. On a store or
// decode failure the previous snapshot is left untouched - a failed
// refresh must never destroy a working cache.
func (c *Cache) Load(ctx context.Context) (int, error) {
	data, err := c.store.Get(ctx)
	if err != nil {
		if objstore.IsNotFoundError(err) {
			c.current.Store(emptySnapshot())
			c.logger.Info("Registry object absent, loaded empty registry")
			return 0, nil
		}
		return 0, err
	}

	doc, err := c.codec.Decode(data)
	if err != nil {
		return 0, err
	}

	snap := buildSnapshot(doc)
	c.current.Store(snap)

	c.logger.Info("Registry cache reloaded", zap.Int("keys_loaded", len(snap.records)))
	return len(snap.records), nil
}

func buildSnapshot(doc *models.RegistryDocument) *snapshot {
	snap := &snapshot{
		bySecret: make(map[string]*models.KeyRecord, doc.Len()),
		byID:     make(map[string]*models.KeyRecord, doc.Len()),
		records:  make([]models.KeyRecord, doc.Len()),
	}
	copy(snap.records, doc.Keys)
	for i := range snap.records {
		rec := &snap.records[i]
		snap.bySecret[rec.Secret] = rec
		snap.byID[rec.ID] = rec
	}
	return snap
}

// VerifySecret looks up a presented secret for verification. Expiry is a
// verification-time filter: an expired record reports VerifyExpired here
// while remaining visible to LookupByID for administration.
func (c *Cache) VerifySecret(secret string) (*models.KeyRecord, VerifyStatus) {
	snap := c.current.Load()
	rec, ok := snap.bySecret[secret]
	if !ok {
		return nil, VerifyNotFound
	}
	if rec.Expired(c.now()) {
		// The record is returned so callers can audit-log which key
		// expired; it must never be treated as valid
		return rec, VerifyExpired
	}
	return rec, VerifyValid
}

// LookupByID returns the record with the given id, including expired
// records
func (c *Cache) LookupByID(id string) (*models.KeyRecord, bool) {
	snap := c.current.Load()
	rec, ok := snap.byID[id]
	return rec, ok
}

// Records returns all records in the current snapshot, in document order
func (c *Cache) Records() []models.KeyRecord {
	snap := c.current.Load()
	out := make([]models.KeyRecord, len(snap.records))
	copy(out, snap.records)
	return out
}

// Count returns the number of records in the current snapshot
func (c *Cache) Count() int {
	return len(c.current.Load().records)
}

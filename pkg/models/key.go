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

package models

import (
	"errors"
	"time"
)

// SecretType tags the kind of credential a record carries
type SecretType string

// Defines values for SecretType. Only shared secrets exist today; the tag
// is stored so future credential kinds can coexist in the same registry.
const (
	SecretTypeSharedSecret SecretType = "shared_secret"
)

// Common document errors - implementation agnostic
var (
	// ErrDuplicateKey is returned when a record's id or secret is already present
	ErrDuplicateKey = errors.New("key already exists")

	// ErrKeyNotFound is returned when no record has the requested id
	ErrKeyNotFound = errors.New("key not found")
)

// IsDuplicateKeyError checks if an error is a duplicate key error
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsKeyNotFoundError checks if an error is a key not found error
func IsKeyNotFoundError(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// KeyRecord is one administered credential. Records are immutable once
// created; the only mutation the registry supports is full deletion.
type KeyRecord struct {
	// ID is the opaque record identifier (key_ prefix, safe to log)
	ID string `json:"id"`
	// Secret is the bearer value (sec_ prefix, never logged)
	Secret string `json:"secret"`
	// Name is a human-readable, non-unique label
	Name string `json:"name"`
	// CreatedAt is set once at creation
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is nil when the record never expires
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// SecretType tags the credential kind
	SecretType SecretType `json:"secret_type"`
	// Metadata is opaque to the registry and returned verbatim on
	// successful verification
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Expired reports whether the record's expiry has passed at the given time.
// A record without an expiry never expires.
func (r *KeyRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// RegistryDocument is the entire registry at a point in time, as stored in
// the backing object. Record order carries no meaning but is kept stable
// so the stored encoding stays diff-friendly.
type RegistryDocument struct {
	Keys []KeyRecord `json:"keys"`
}

// NewRegistryDocument creates an empty registry document
func NewRegistryDocument() *RegistryDocument {
	return &RegistryDocument{Keys: []KeyRecord{}}
}

// Add appends a record, preserving the relative order of existing records.
// It returns ErrDuplicateKey when the record's id or secret is already
// present; both namespaces must stay unique across the whole registry.
func (d *RegistryDocument) Add(rec KeyRecord) error {
	for i := range d.Keys {
		if d.Keys[i].ID == rec.ID || d.Keys[i].Secret == rec.Secret {
			return ErrDuplicateKey
		}
	}
	d.Keys = append(d.Keys, rec)
	return nil
}

// Remove deletes exactly one record by id, leaving all others untouched.
// It returns ErrKeyNotFound when no record has that id.
func (d *RegistryDocument) Remove(id string) error {
	for i := range d.Keys {
		if d.Keys[i].ID == id {
			d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
			return nil
		}
	}
	return ErrKeyNotFound
}

// Get returns the record with the given id, if present
func (d *RegistryDocument) Get(id string) (*KeyRecord, bool) {
	for i := range d.Keys {
		if d.Keys[i].ID == id {
			return &d.Keys[i], true
		}
	}
	return nil, false
}

// Len returns the number of records in the document
func (d *RegistryDocument) Len() int {
	return len(d.Keys)
}

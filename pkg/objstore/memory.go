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

package objstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process object store used for development mode and
// tests. FailGets/FailPuts inject store outages.
type MemoryStore struct {
	mu       sync.Mutex
	data     []byte
	exists   bool
	FailGets bool
	FailPuts bool
}

// NewMemoryStore creates an empty in-memory store (object absent)
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get reads the stored object
func (m *MemoryStore) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailGets {
		return nil, ErrStoreUnavailable
	}
	if !m.exists {
		return nil, ErrObjectNotFound
	}

	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

// Put overwrites the stored object
func (m *MemoryStore) Put(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPuts {
		return ErrStoreUnavailable
	}

	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.exists = true
	return nil
}

// Delete removes the stored object, returning the store to the absent
// state. Only used by tests.
func (m *MemoryStore) Delete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.exists = false
}

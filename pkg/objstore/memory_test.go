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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AbsentObject(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background())
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsUnavailableError(err))
}

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, []byte(`{"keys":[]}`)))

	data, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"keys":[]}`), data)

	// Put is a full overwrite
	require.NoError(t, store.Put(ctx, []byte(`{"keys":[1]}`)))
	data, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"keys":[1]}`), data)
}

func TestMemoryStore_FaultInjection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, []byte("data")))

	store.FailGets = true
	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, IsNotFoundError(err), "an outage must never read as an empty registry")

	store.FailGets = false
	store.FailPuts = true
	err = store.Put(ctx, []byte("other"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// The failed put must not have clobbered the object
	store.FailPuts = false
	data, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, []byte("data")))

	store.Delete()
	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

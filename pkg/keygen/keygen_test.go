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

package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyID(t *testing.T) {
	id := NewKeyID()
	assert.True(t, strings.HasPrefix(id, KeyIDPrefix))
	assert.Greater(t, len(id), len(KeyIDPrefix))
}

func TestNewSecret(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	// 32 bytes hex-encoded plus prefix
	assert.Len(t, secret, len(SecretPrefix)+64)
}

func TestPrefixesAreDisjoint(t *testing.T) {
	id := NewKeyID()
	secret, err := NewSecret()
	require.NoError(t, err)

	assert.False(t, strings.HasPrefix(id, SecretPrefix))
	assert.False(t, strings.HasPrefix(secret, KeyIDPrefix))
}

func TestNewPair_Uniqueness(t *testing.T) {
	const iterations = 10000

	ids := make(map[string]struct{}, iterations)
	secrets := make(map[string]struct{}, iterations)

	for i := 0; i < iterations; i++ {
		id, secret, err := NewPair()
		require.NoError(t, err)

		_, seenID := ids[id]
		require.False(t, seenID, "duplicate id generated: %s", id)
		ids[id] = struct{}{}

		_, seenSecret := secrets[secret]
		require.False(t, seenSecret, "duplicate secret generated")
		secrets[secret] = struct{}{}
	}
}

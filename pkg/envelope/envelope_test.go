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

package envelope

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyreg-io/keyreg/pkg/models"
)

func testDocument(t *testing.T) *models.RegistryDocument {
	t.Helper()

	expiry := time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC)
	doc := models.NewRegistryDocument()
	require.NoError(t, doc.Add(models.KeyRecord{
		ID:         "key_11111111-2222-3333-4444-555555555555",
		Secret:     "sec_aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Name:       "billing-service",
		CreatedAt:  time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC),
		SecretType: models.SecretTypeSharedSecret,
		Metadata:   map[string]string{"team": "payments", "env": "prod"},
	}))
	require.NoError(t, doc.Add(models.KeyRecord{
		ID:         "key_66666666-7777-8888-9999-000000000000",
		Secret:     "sec_bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Name:       "reporting",
		CreatedAt:  time.Date(2026, 7, 2, 8, 0, 0, 0, time.UTC),
		ExpiresAt:  &expiry,
		SecretType: models.SecretTypeSharedSecret,
	}))
	return doc
}

func TestCodec_RoundTripPlain(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)
	assert.False(t, codec.EncryptionEnabled())

	doc := testDocument(t)
	data, err := codec.Encode(doc)
	require.NoError(t, err)

	// Plain encoding is readable JSON, no envelope header
	assert.False(t, bytes.HasPrefix(data, envelopeHeader))
	assert.Contains(t, string(data), "\"billing-service\"")

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestCodec_RoundTripEncrypted(t *testing.T) {
	codec, err := NewCodec("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, codec.EncryptionEnabled())

	doc := testDocument(t)
	data, err := codec.Encode(doc)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, envelopeHeader))
	assert.NotContains(t, string(data), "billing-service", "ciphertext must not leak plaintext")

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestCodec_DecodeLegacyPlainWithSecretConfigured(t *testing.T) {
	plainCodec, err := NewCodec("")
	require.NoError(t, err)
	doc := testDocument(t)
	legacy, err := plainCodec.Encode(doc)
	require.NoError(t, err)

	// A codec with encryption enabled must still read the old plaintext
	// object so enabling encryption needs no migration step
	encCodec, err := NewCodec("new storage secret")
	require.NoError(t, err)

	decoded, err := encCodec.Decode(legacy)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestCodec_DecodeWrongSecret(t *testing.T) {
	codec, err := NewCodec("secret one")
	require.NoError(t, err)
	data, err := codec.Encode(testDocument(t))
	require.NoError(t, err)

	other, err := NewCodec("secret two")
	require.NoError(t, err)

	doc, err := other.Decode(data)
	assert.Nil(t, doc, "wrong key must never yield a partial or empty document")
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestCodec_DecodeEncryptedWithoutSecret(t *testing.T) {
	codec, err := NewCodec("some secret")
	require.NoError(t, err)
	data, err := codec.Encode(testDocument(t))
	require.NoError(t, err)

	plain, err := NewCodec("")
	require.NoError(t, err)

	_, err = plain.Decode(data)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestCodec_DecodeCorruptedEnvelope(t *testing.T) {
	codec, err := NewCodec("some secret")
	require.NoError(t, err)
	data, err := codec.Encode(testDocument(t))
	require.NoError(t, err)

	// Flip a ciphertext byte; GCM authentication must fail
	data[len(data)-1] ^= 0xff
	_, err = codec.Decode(data)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))

	// Truncated envelope, shorter than a nonce
	short := append([]byte{}, envelopeHeader...)
	short = append(short, 0x01, 0x02)
	_, err = codec.Decode(short)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestCodec_DecodeMalformedPlain(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	_, err = codec.Decode([]byte("this is not a registry document"))
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestCodec_DecodeEmptyKeysDocument(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	doc, err := codec.Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Keys)
	assert.Equal(t, 0, doc.Len())
}

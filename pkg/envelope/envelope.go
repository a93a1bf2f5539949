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

// Package envelope encodes and decodes the registry document for storage,
// transparently applying AES-256-GCM when a storage secret is configured.
// Decode accepts both encrypted envelopes and legacy plaintext documents,
// so a registry can be migrated to encrypted storage without a separate
// migration step: the first write after enabling encryption rewrites the
// object in encrypted form.
package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/keyreg-io/keyreg/pkg/models"
)

const (
	// NonceSize is the size of the nonce for AES-GCM (12 bytes is standard)
	NonceSize = 12

	// aesKeySize is the AES-256 key size derived from the storage secret
	aesKeySize = 32
)

// envelopeHeader marks an encrypted envelope. Bytes without it are decoded
// as a legacy plaintext document.
var envelopeHeader = []byte("KEYREG_ENC_V1:")

// Codec encodes and decodes registry documents
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec. An empty storageSecret disables encryption;
// Encode then emits the plain serialized document.
func NewCodec(storageSecret string) (*Codec, error) {
	c := &Codec{}
	if storageSecret == "" {
		return c, nil
	}

	key, err := deriveKey(storageSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	c.aead = aead
	return c, nil
}

// EncryptionEnabled reports whether a storage secret is configured
func (c *Codec) EncryptionEnabled() bool {
	return c.aead != nil
}

// Encode serializes the document, encrypting it when a storage secret is
// configured. The plaintext serialization is stable, indented JSON so the
// stored object stays human-diffable.
func (c *Codec) Encode(doc *models.RegistryDocument) ([]byte, error) {
	plaintext, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registry document: %w", err)
	}

	if c.aead == nil {
		return plaintext, nil
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || encrypted data || auth tag
	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)

	out := make([]byte, 0, len(envelopeHeader)+len(ciphertext))
	out = append(out, envelopeHeader...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decode turns stored bytes back into a registry document, auto-detecting
// whether they are an encrypted envelope or a legacy plaintext document.
// All failures are reported as *DecodeError.
func (c *Codec) Decode(data []byte) (*models.RegistryDocument, error) {
	if bytes.HasPrefix(data, envelopeHeader) {
		return c.decodeEncrypted(data[len(envelopeHeader):])
	}
	return decodePlain(data)
}

func (c *Codec) decodeEncrypted(payload []byte) (*models.RegistryDocument, error) {
	if c.aead == nil {
		return nil, &DecodeError{Reason: "data is encrypted but no storage secret is configured"}
	}

	if len(payload) < NonceSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("envelope too short: %d bytes", len(payload))}
	}

	nonce := payload[:NonceSize]
	ciphertext := payload[NonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Wrong storage secret and corrupted ciphertext are
		// indistinguishable here; both fail authentication.
		return nil, &DecodeError{Reason: "decryption failed (wrong storage secret or corrupted data)", Cause: err}
	}

	return decodePlain(plaintext)
}

func decodePlain(data []byte) (*models.RegistryDocument, error) {
	var doc models.RegistryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Reason: "invalid registry document", Cause: err}
	}
	if doc.Keys == nil {
		doc.Keys = []models.KeyRecord{}
	}
	return &doc, nil
}

// deriveKey stretches the configured storage secret into an AES-256 key
// with HKDF-SHA256
func deriveKey(storageSecret string) ([]byte, error) {
	kdf := hkdf.New(sha256.New, []byte(storageSecret), nil, []byte("keyreg registry envelope v1"))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

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

// Package keygen generates registry identifiers and bearer secrets. The
// two namespaces carry disjoint prefixes so an id can never be mistaken
// for a secret: ids are loggable, secrets are not.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	// KeyIDPrefix marks record identifiers (safe to log)
	KeyIDPrefix = "key_"
	// SecretPrefix marks bearer secrets (never logged)
	SecretPrefix = "sec_"

	// secretEntropyBytes is the random payload of a secret (256 bits)
	secretEntropyBytes = 32
)

// NewKeyID returns a fresh record identifier
func NewKeyID() string {
	return KeyIDPrefix + uuid.New().String()
}

// NewSecret returns a fresh high-entropy bearer secret
func NewSecret() (string, error) {
	randomBytes := make([]byte, secretEntropyBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return SecretPrefix + hex.EncodeToString(randomBytes), nil
}

// NewPair returns a fresh id/secret pair for a new record
func NewPair() (id string, secret string, err error) {
	secret, err = NewSecret()
	if err != nil {
		return "", "", err
	}
	return NewKeyID(), secret, nil
}

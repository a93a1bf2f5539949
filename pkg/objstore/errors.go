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

import "errors"

// Common object store errors - implementation agnostic
var (
	// ErrObjectNotFound is returned when the registry object does not
	// exist. This is the expected empty state, not a failure.
	ErrObjectNotFound = errors.New("registry object not found")

	// ErrStoreUnavailable is returned when the store could not be
	// reached. Callers must not treat this as an empty registry.
	ErrStoreUnavailable = errors.New("object store unavailable")
)

// IsNotFoundError checks if an error is an object not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsUnavailableError checks if an error is a store unavailable error
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

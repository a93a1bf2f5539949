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

// Package objstore reads and writes the single registry object in an
// external blob store. A missing object is a legitimate state (first run,
// empty registry) and is reported as ErrObjectNotFound, never conflated
// with a store outage.
package objstore

import "context"

// Store is the interface for the registry's backing object
type Store interface {
	// Get reads the entire registry object. It returns ErrObjectNotFound
	// when the object does not exist and ErrStoreUnavailable when the
	// store could not be asked.
	Get(ctx context.Context) ([]byte, error)

	// Put overwrites the entire registry object. There is no partial and
	// no conditional write; concurrent writers are last-writer-wins.
	Put(ctx context.Context, data []byte) error
}

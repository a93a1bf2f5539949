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
	"errors"
	"fmt"
)

// DecodeError indicates the stored envelope could not be turned back into
// a registry document: corrupted bytes, malformed JSON, or the wrong
// storage secret. Callers must treat it as fatal to the operation that
// triggered the decode - falling back to an empty registry would be
// indistinguishable from "no keys configured" and would lock out every
// legitimate caller without signal.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to decode registry envelope: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("failed to decode registry envelope: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsDecodeError checks if an error is a registry decode error
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

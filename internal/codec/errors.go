/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package codec

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrFormat             = errors.New("malformed token")
	ErrTokenCount         = errors.New("not enough tokens")
	ErrUnknownIdentifier  = errors.New("unknown identifier")
	ErrInvalidSection     = errors.New("invalid section")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrRange              = errors.New("value out of range")
	ErrMissingParent      = errors.New("missing parent context")
)

// FormatError reports a numeric, vector, color or time token that does not parse.
type FormatError struct {
	Kind  string // "float", "int", "vector", "color", "beat position", "easing", ...
	Token string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Token, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Token)
}

func (e *FormatError) Unwrap() error        { return e.Err }
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// TokenCountError reports an object or storyboard record that is too short.
type TokenCountError struct {
	Kind string
	Want int
	Got  int
}

func (e *TokenCountError) Error() string {
	return fmt.Sprintf("%s: not enough tokens (minimum %d, got %d)", e.Kind, e.Want, e.Got)
}

func (e *TokenCountError) Is(target error) bool { return target == ErrTokenCount }

// UnknownIdentifierError reports an enumeration name or record kind that is not recognized.
type UnknownIdentifierError struct {
	Kind string
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

func (e *UnknownIdentifierError) Is(target error) bool { return target == ErrUnknownIdentifier }

// InvalidSectionError reports a [SECTION] header the format does not define.
type InvalidSectionError struct {
	Name string
}

func (e *InvalidSectionError) Error() string {
	return fmt.Sprintf("the section %q is not a valid section", e.Name)
}

func (e *InvalidSectionError) Is(target error) bool { return target == ErrInvalidSection }

// UnsupportedVersionError is returned for documents written by a newer format version.
type UnsupportedVersionError struct {
	Version   int
	Supported int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("format version %d is newer than the supported version %d; upgrade required to open this file",
		e.Version, e.Supported)
}

func (e *UnsupportedVersionError) Is(target error) bool { return target == ErrUnsupportedVersion }

// RangeError reports a value outside its permitted interval.
type RangeError struct {
	What string
	Err  error
}

func (e *RangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s out of range: %v", e.What, e.Err)
	}
	return e.What + " out of range"
}

func (e *RangeError) Unwrap() error        { return e.Err }
func (e *RangeError) Is(target error) bool { return target == ErrRange }

// MissingParentError reports a record that needs an enclosing record which has not been declared.
type MissingParentError struct {
	Kind   string
	Parent string
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("%s appears before any %s", e.Kind, e.Parent)
}

func (e *MissingParentError) Is(target error) bool { return target == ErrMissingParent }

// DecodeError wraps the first failure of a decode pass with its 1-based line
// number and the raw line text.
type DecodeError struct {
	Line    int
	Content string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding line %d: %v\ncontent: %s", e.Line, e.Err, e.Content)
}

func (e *DecodeError) Unwrap() error { return e.Err }

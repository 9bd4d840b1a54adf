// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stac

import (
	"errors"
	"fmt"
)

// Error codes carried in the code field of a Message
const (
	ParameterError   = "ParameterError"
	NotFound         = "NotFoundError"
	Conflict         = "ConflictError"
	StorageError     = "DatabaseError"
	ServerError      = "ServerError"
	JSONParsingError = "JSONParsingError"
	RequestCanceled  = "RequestCanceled"
	RequestTimeout   = "RequestTimeout"
)

// Message is the body of every non-document response
type Message struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var (
	// ErrNotFound indicates that a requested item or collection does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that a document with the same id already exists
	ErrConflict = errors.New("conflict")

	// ErrDatabase indicates that the storage backend failed
	ErrDatabase = errors.New("database error")

	// ErrInvalidInput indicates that a request parameter or document was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError is returned when an item or collection is missing
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError is returned when creating a document whose id is taken
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewConflictError(resource, id string) *ConflictError {
	return &ConflictError{Resource: resource, ID: id}
}

// DatabaseError wraps a failure of the underlying storage
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("database error during %s", e.Op)
	}
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func (e *DatabaseError) Is(target error) bool {
	return target == ErrDatabase
}

func NewDatabaseError(op string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Err: err}
}

// ValidationError reports an invalid request parameter or document field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

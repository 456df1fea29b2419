// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed query.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindNetwork   ErrorKind = "network"
	KindServer    ErrorKind = "server"
	KindMalformed ErrorKind = "malformed"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return "Network error: " + e.Err.Error()
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError means the endpoint answered with a non-2xx status.
type ServerError struct {
	Status int
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("Server error: %d", e.Status)
}

// MalformedResponseError means a 2xx body was not the expected JSON object.
type MalformedResponseError struct {
	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return "Malformed response: " + e.Err.Error()
}

// Unwrap returns the decode error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Kind reports which failure class err belongs to. Errors that did not come
// from a Client count as network failures.
func Kind(err error) ErrorKind {
	var (
		netErr    *NetworkError
		serverErr *ServerError
		malformed *MalformedResponseError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &serverErr):
		return KindServer
	case errors.As(err, &malformed):
		return KindMalformed
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindNetwork
	}
}

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fault

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/steadyhttp/steady/decode"
)

// A Category is the failure category of a particular error, as
// reported by function Categorize().
//
// The retry policy of the request executor keys off the category: the
// Transport, Timeout, Abort, and Status categories are retryable while
// budget remains, whereas Decode and Validation failures terminate the
// execution immediately.
type Category int

const (
	// None indicates a nil error.
	None Category = iota
	// Transport indicates a connection-level failure: the request
	// never produced a usable HTTP response. Transport failures are
	// surfaced as the raw underlying error.
	Transport
	// Timeout indicates a client-side timeout on a request attempt.
	//
	// Function Categorize() will return Timeout if the error or any of
	// its wrapped causes has a Timeout() function that reports true.
	Timeout
	// Abort indicates that the request was torn down before a response
	// arrived, for example because the execution's context was
	// canceled.
	Abort
	// Status indicates a completed HTTP exchange whose status code was
	// outside the 2xx range.
	Status
	// Decode indicates a response payload that could not be decoded
	// according to its declared content type. Retrying would reproduce
	// the same malformed payload, so Decode failures are never
	// retried.
	Decode
	// Validation indicates locally invalid input, detected before any
	// network activity. Validation failures are never retried.
	Validation
)

var categoryNames = []string{
	"None",
	"Transport",
	"Timeout",
	"Abort",
	"Status",
	"Decode",
	"Validation",
}

// String returns the name of the category.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Categorize returns the failure category of the given error. A nil
// error produces the return value None.
//
// In assessing the category, Categorize looks at wrapped cause errors
// contained within err, not just err itself, so errors that arrive
// wrapped in *url.Error (or any other wrapper implementing Unwrap)
// categorize the same as their causes.
func Categorize(err error) Category {
	if err == nil {
		return None
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return Validation
	}

	var decodeErr *decode.Error
	if errors.As(err, &decodeErr) {
		return Decode
	}

	var status *StatusError
	if errors.As(err, &status) {
		return Status
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var abort *AbortError
	if errors.As(err, &abort) || errors.Is(err, context.Canceled) {
		return Abort
	}

	return Transport
}

type hasTimeout interface {
	Timeout() bool
}

const (
	timeoutMessage = "Failed due timeout reason"
	abortMessage   = "Failed due abort reason"
)

// A TimeoutError is the terminal error of an execution whose last
// failure was a request attempt timeout. Its message is fixed; the
// underlying transport error, if any, is available via Unwrap.
type TimeoutError struct {
	// Cause is the transport-level error that was classified as a
	// timeout. It may be nil.
	Cause error
}

func (e *TimeoutError) Error() string {
	return timeoutMessage
}

// Timeout reports true, marking the error as a timeout in the sense of
// net.Error.
func (e *TimeoutError) Timeout() bool {
	return true
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// An AbortError is the terminal error of an execution whose last
// failure was an aborted request, for example a canceled context. Its
// message is fixed; the underlying error, if any, is available via
// Unwrap.
type AbortError struct {
	// Cause is the error that was classified as an abort. It may be
	// nil.
	Cause error
}

func (e *AbortError) Error() string {
	return abortMessage
}

// Unwrap returns the underlying error.
func (e *AbortError) Unwrap() error {
	return e.Cause
}

// A StatusError is the terminal error of an execution whose last
// request attempt completed with a status code outside the 2xx range.
// It carries the decoded (or absent) response payload so that callers
// can inspect error bodies without a second decode pass.
type StatusError struct {
	// StatusCode is the HTTP status code of the final attempt.
	StatusCode int

	// Status is the HTTP status line message, e.g. "503 Service
	// Unavailable". May be empty.
	Status string

	// Header contains the response headers of the final attempt.
	Header http.Header

	// Body is the decoded response payload of the final attempt. It is
	// the absent body if the response carried no payload or the
	// payload could not be decoded.
	Body decode.Body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// A ValidationError indicates locally invalid request input, such as a
// target host without a URL scheme or with a scheme other than http or
// https. It is produced before any network activity and is never
// retried.
type ValidationError struct {
	// Host is the offending host or URL as supplied by the caller.
	Host string

	// Reason describes why the input was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("steady: invalid request target %q: %s", e.Host, e.Reason)
}

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/steadyhttp/steady/decode"
	"github.com/steadyhttp/steady/fault"
)

// An Execution represents the state of a single Spec execution.
//
// When an HTTP request execution is requested, an Execution is created
// for it. The Execution is updated as the execution progresses (for
// example when the HTTP response becomes available, or when a retry is
// needed) and is ultimately returned as the result of the execution.
//
// Event handlers and retry policies may set values on an Execution
// using its SetValue method and read them back using the Value method.
// However, they should treat the structure's exported field values as
// immutable and leave them unmodified, as the execution state is vital
// to the correct functioning of the execution logic.
type Execution struct {
	// Spec specifies the HTTP request being executed. It is never nil.
	Spec *Spec

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// Attempt is the zero-based number of the current request attempt
	// during the execution. It is set to zero on the initial attempt,
	// one on the first retry, and so on.
	//
	// When the execution has ended, Attempt contains the zero-based
	// number of the last attempt made. An execution that ends after an
	// initial attempt plus two retries has an attempt number of 2.
	Attempt int

	// AttemptTimeouts is the count of the number of times a request
	// attempt timed out during the execution.
	AttemptTimeouts int

	// Request specifies the HTTP request to be made in the current
	// attempt, or already made in the last attempt.
	Request *http.Request

	// Response specifies the HTTP response received in the most recent
	// request attempt. It will be nil if the most recent attempt ended
	// in a transport error, or if a current attempt is underway, or
	// before the execution starts.
	Response *http.Response

	// Raw is the complete buffered response payload read after the
	// most recent request attempt, before decoding. It will be nil if
	// the most recent attempt ended in a transport error.
	Raw []byte

	// Body is the decoded response payload of the most recent request
	// attempt. It is the absent body if the response carried no
	// payload, if the payload could not be decoded, or if no response
	// was received.
	Body decode.Body

	// Err indicates the failure of the most recent request attempt.
	// It will be nil if the most recent attempt succeeded with a 2xx
	// status, or if a current attempt is underway, or before the
	// execution starts.
	//
	// While an execution is in-flight, Err may fluctuate between nil
	// and various non-nil error values. Once the execution has ended,
	// Err will not change and has the same value as the error value
	// returned by the client's executing method.
	Err error

	// data contains arbitrary user data set via SetValue.
	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent request attempt in the execution. If there is no HTTP
// response, 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers from the most recent
// request attempt in the execution. If there is no HTTP response, the
// nil header is returned.
//
// Note that a nil return value is always safe for read-only
// operations, since http.Header is a map type.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
//
// If the return value is true, the execution is over, End is a
// non-zero time, and there will be no further changes to the
// execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a request attempt timeout.
func (e *Execution) Timeout() bool {
	return fault.Categorize(e.Err) == fault.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}

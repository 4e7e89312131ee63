// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/steadyhttp/steady/fault"
	"github.com/steadyhttp/steady/request"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in deciders Budget and Retryable and the constructors
// Times and StatusCode, or implement your own. Use DeciderFunc to
// convert an ordinary function into a Decider, and to compose deciders
// logically using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface,
// and also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(e *request.Execution) bool

// DefaultDecider is the decider of the default retry policy: retry a
// retryable failure kind while attempts remain within the spec's
// budget.
var DefaultDecider = Budget.And(Retryable)

// Budget is a decider that allows retries while the zero-based attempt
// index is below the spec's MaxRetries. With a budget of N it permits
// at most N+1 total attempts.
var Budget DeciderFunc = budget

// Retryable is a decider that indicates a retry if the most recent
// failure is of a retryable kind: a transport error, a timeout, an
// abort, or a non-2xx status. Decode and validation failures are not
// retryable, because reissuing the request would reproduce them.
var Retryable DeciderFunc = retryable

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries
// independent of the spec's own budget. The returned decider returns
// true while the execution attempt index e.Attempt is less than n, and
// false otherwise.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent request attempt within
// the execution received a valid HTTP response, and the response
// status code is contained in the list ss, the decider returns true.
// Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

func budget(e *request.Execution) bool {
	return e.Attempt < e.Spec.MaxRetries
}

func retryable(e *request.Execution) bool {
	switch fault.Categorize(e.Err) {
	case fault.Transport, fault.Timeout, fault.Abort, fault.Status:
		return true
	}
	return false
}

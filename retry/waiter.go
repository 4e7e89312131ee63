// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/steadyhttp/steady/request"
)

// A Waiter specifies how long to wait before retrying a failed HTTP
// request attempt.
//
// Implementations of Waiter must be safe for concurrent use by
// multiple goroutines.
//
// The client will not call the Waiter on a retry policy if the policy
// Decider returned false.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter is the default retry wait policy. It returns the
// constant RetryDelay configured on the spec being executed, so the
// spacing between consecutive attempts of one call never varies. A
// zero delay retries immediately.
var DefaultWaiter Waiter = specDelay{}

type specDelay struct{}

func (specDelay) Wait(e *request.Execution) time.Duration {
	return e.Spec.RetryDelay
}

// NewFixedWaiter constructs a Waiter that always returns the given
// duration, ignoring the spec's configured delay.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

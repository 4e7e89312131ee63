// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/steadyhttp/steady/request"
)

// A Policy controls if and how retries are done in an HTTP request
// execution. After every attempt, a Policy decides whether a retry
// should be done and, if so, how long the wait period should be before
// retrying the attempt.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces. While you
// can implement Policy yourself, it is usually enough to use the
// built-in Default or Never policies, or to compose existing Decider
// and Waiter implementations with NewPolicy.
type Policy interface {
	Decider
	Waiter
}

// Default is the retry policy a client uses when none is configured.
// It retries retryable failure kinds (transport errors, timeouts,
// aborts, and non-2xx statuses) while the attempt index is below the
// spec's MaxRetries, waiting the spec's constant RetryDelay between
// attempts. A spec with MaxRetries zero therefore performs exactly one
// attempt regardless of outcome.
var Default Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries, regardless of the spec's
// retry budget. It is useful if you want to use the other features of
// the client but do not want retries.
var Never Policy = policy{never, DefaultWaiter}

var never DeciderFunc = func(_ *request.Execution) bool { return false }

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retry provides the retry policy interface consumed by the
robust HTTP client, along with the default policy implementing the
per-request retry contract: a bounded number of re-attempts (the
spec's MaxRetries) with a constant delay between attempts (the spec's
RetryDelay), applied only to retryable failure kinds.

Policies are composed of a Decider (should this failure be retried?)
and a Waiter (how long to wait first?). Deciders compose logically via
DeciderFunc.And and DeciderFunc.Or.
*/
package retry

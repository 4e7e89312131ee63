// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fault defines the error taxonomy of the robust HTTP client and
classifies arbitrary errors into it.

The taxonomy distinguishes transport failures, attempt timeouts,
aborted requests, non-2xx statuses, payload decode failures, and local
input validation failures. Retry decisions are made on the category,
never on the concrete error value: transport, timeout, abort, and
status failures are retryable while budget remains; decode and
validation failures are always terminal.
*/
package fault

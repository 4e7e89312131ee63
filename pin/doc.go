// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package pin implements TLS certificate fingerprint pinning: rejecting a
TLS connection unless the digest of the peer's leaf certificate matches
a caller-supplied expected value.

A Fingerprint is supplied per request, consumed before the connection
opens, and never persisted. The binding never mutates caller-owned
configuration: TLSConfig and Transport return configured copies of
their inputs.
*/
package pin

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request provides the Spec structure describing a logical HTTP
request (including its retry budget, attempt timeout, and optional
certificate pin), and the Execution structure tracking the state and
final result of executing a Spec.

A Spec can be built from a full URL (New) or from a pre-split
scheme/host/port target (NewFromTarget); both front-ends feed the same
execution engine. A target without a scheme, or with a scheme other
than http or https, is rejected as a *fault.ValidationError before any
network activity.
*/
package request

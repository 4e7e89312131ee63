// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package steady

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// execution starts.
	//
	// When Client fires BeforeExecutionStart, the execution is
	// non-nil but the only field that has been set is the spec.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual HTTP request attempt during the execution.
	//
	// When Client fires BeforeAttempt, the execution's request field
	// is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished.
	//
	// BeforeAttempt handlers may modify the execution's request, or
	// some of its fields, thus changing the HTTP request that will be
	// sent. However, BeforeAttempt handlers should clone request
	// fields which have reference types (URL and Header) before
	// changing them to avoid side effects, as these fields initially
	// reference the same-named fields in the spec.
	BeforeAttempt
	// BeforeDecode identifies the event that occurs after a request
	// attempt has produced a fully buffered response payload but
	// before the payload is decoded according to its content type.
	//
	// When Client fires BeforeDecode, the execution's response field
	// and raw payload field are set; the decoded body is not yet.
	//
	// Note that BeforeDecode never fires if the request attempt ended
	// in a transport error, but always fires if an HTTP response was
	// received and read, regardless of status code, and regardless of
	// whether the payload is empty.
	BeforeDecode
	// AfterAttemptTimeout identifies the event that occurs after an
	// HTTP request attempt failed because of a timeout error.
	//
	// When Client fires AfterAttemptTimeout, the execution's error
	// field is set to the timeout error, and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an HTTP
	// request attempt is concluded, regardless of whether it concluded
	// successfully or not.
	//
	// Note that AfterAttempt always fires on every HTTP request
	// attempt, and that it runs before the retry policy is consulted
	// for a retry decision.
	AfterAttempt
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends.
	//
	// When Client fires AfterExecutionEnd, the execution is in the
	// same state it was in after the final HTTP request attempt (and
	// last AfterAttempt event) EXCEPT that the terminal error has been
	// typed by failure kind and the end time is set to the time the
	// execution ended.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeDecode",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// HTTP request execution by Client, in the order in which they would
// occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeDecode,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

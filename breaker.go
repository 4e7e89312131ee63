// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package steady

import (
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/steadyhttp/steady/request"
)

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	// MaxRequests is the maximum number of requests allowed to pass
	// through while the breaker for a resource is half-open.
	MaxRequests uint32
	// ConsecutiveFailures is the number of consecutive failed
	// executions after which the breaker for a resource trips open.
	ConsecutiveFailures uint32
	// Interval is the cyclic period of the closed state during which
	// the breaker clears its failure counts. Zero means the counts are
	// never cleared while closed.
	Interval time.Duration
	// Timeout is the period of the open state after which the breaker
	// transitions to half-open. Zero means the gobreaker default.
	Timeout time.Duration
}

// A Breaker wraps a Doer with per-resource circuit breakers. Requests
// are grouped into resources by method and URL path; each resource
// gets its own breaker, so a failing endpoint trips without affecting
// requests to healthy endpoints on the same host.
//
// Every failed execution counts against the resource's breaker,
// including terminal timeouts, aborts, and non-2xx statuses. Once the
// breaker is open, Do fails fast with gobreaker.ErrOpenState and a nil
// execution: no attempt is made. The typed error taxonomy of the
// wrapped Doer passes through unchanged, so callers can still branch
// on failure kind.
//
// A Breaker is safe for concurrent use by multiple goroutines.
type Breaker struct {
	doer     Doer
	settings BreakerSettings
	breakers sync.Map // resource name -> *gobreaker.CircuitBreaker[*request.Execution]
}

// NewBreaker wraps a Doer with per-resource circuit breakers using the
// given settings.
func NewBreaker(d Doer, settings BreakerSettings) *Breaker {
	if d == nil {
		panic("steady: nil doer")
	}
	return &Breaker{doer: d, settings: settings}
}

// Do executes the spec through the circuit breaker of the spec's
// resource. If an attempt was made, the returned execution is the
// wrapped Doer's execution even on failure; if the breaker was open,
// the execution is nil and the error is gobreaker.ErrOpenState.
func (b *Breaker) Do(s *request.Spec) (*request.Execution, error) {
	cb := b.breaker(resource(s))
	var last *request.Execution
	_, err := cb.Execute(func() (*request.Execution, error) {
		e, err := b.doer.Do(s)
		last = e
		return e, err
	})
	if err != nil {
		return last, err
	}
	return last, nil
}

func (b *Breaker) breaker(name string) *gobreaker.CircuitBreaker[*request.Execution] {
	if cb, ok := b.breakers.Load(name); ok {
		return cb.(*gobreaker.CircuitBreaker[*request.Execution])
	}
	cb, _ := b.breakers.LoadOrStore(name, gobreaker.NewCircuitBreaker[*request.Execution](gobreaker.Settings{
		Name:        fmt.Sprintf("circuit breaker for resource %s", name),
		MaxRequests: b.settings.MaxRequests,
		Interval:    b.settings.Interval,
		Timeout:     b.settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.settings.ConsecutiveFailures
		},
	}))
	return cb.(*gobreaker.CircuitBreaker[*request.Execution])
}

// resource derives the breaker key for a spec: the method plus the URL
// path, so distinct endpoints trip independently.
func resource(s *request.Spec) string {
	path := ""
	if s.URL != nil {
		path = s.URL.Path
	}
	return s.Method + "_" + path
}

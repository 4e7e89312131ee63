// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package steady provides a resilient outbound HTTP client: automatic
retries with a per-request budget and constant delay, response body
decoding by content type, attempt timeouts, typed failure
classification, and optional TLS certificate fingerprint pinning.

Create a Client to begin making requests.

	client := &steady.Client{}
	ex, err := client.Get("https://www.example.com")
	...
	ex, err := client.Post("https://www.example.com/upload",
		"application/json", `{"name":"steady"}`)
	...
	ex, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

Every call returns exactly one of a decoded execution or an error;
failures never escape as panics. On success the execution's Body holds
the response payload decoded by content type: JSON documents are
parsed, a fixed set of binary media types pass through as bytes, and
everything else is text (see package decode). On failure the error is
typed by kind (see package fault), so callers can branch on timeouts,
aborts, non-2xx statuses, decode failures, and invalid input:

	var status *fault.StatusError
	if errors.As(err, &status) {
		log.Printf("server said %d", status.StatusCode)
	}

Retries, the attempt timeout, and certificate pinning are configured
per request on the Spec:

	s, err := request.New("GET", "https://api.example.com/health", nil)
	...
	s.MaxRetries = 3
	s.RetryDelay = 250 * time.Millisecond
	s.Timeout = 2 * time.Second
	s.Pin, err = pin.New("ab:12:...:ef")
	ex, err := client.Do(s)

A spec with MaxRetries zero performs exactly one attempt regardless of
outcome. Callers that carry scheme, host, and port as separate values
can build the same spec with request.NewFromTarget; both front-ends
feed the same execution engine.

For control over how the client sends HTTP requests and receives HTTP
responses, use a custom HTTPDoer. For example, use a GoLang standard
HTTP client:

	doer := &http.Client{
		..., // See package "net/http" for detailed documentation
	}
	client := &steady.Client{
		HTTPDoer: doer,
	}

For control over the client's retry decisions, replace the default
spec-driven policy using components from package retry:

	policy := retry.NewPolicy(
		retry.Budget.And(retry.StatusCode(429, 502, 503, 504).Or(retry.Retryable)),
		retry.NewFixedWaiter(time.Second),
	)
	client := &steady.Client{
		RetryPolicy: policy,
	}

To hook into the fine-grained details of the client's request
execution logic, install a handler into the appropriate handler chain:

	handlers := &steady.HandlerGroup{}
	handlers.PushBack(steady.BeforeAttempt, steady.HandlerFunc(
		func(_ steady.Event, e *request.Execution) {
			log.Printf("attempt %d to %s", e.Attempt, e.Request.URL.String())
		}),
	)
	client := &steady.Client{
		Handlers: handlers,
	}

To fail fast on endpoints that keep failing, wrap any Doer in a
per-resource circuit breaker:

	breaker := steady.NewBreaker(client, steady.BreakerSettings{
		ConsecutiveFailures: 5,
		MaxRequests:         1,
		Timeout:             30 * time.Second,
	})
	ex, err := breaker.Do(s)

Package steady provides basic interfaces for each method of the
client (Doer, Getter, Poster, Putter, Deleter, FormPoster, and
IdleCloser); a combined interface that composes all the basic methods
(Executor); and utility functions for working with a Doer (Inflate,
Get, Post, Put, Delete, and PostForm).
*/
package steady

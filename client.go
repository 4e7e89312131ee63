// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package steady

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/steadyhttp/steady/decode"
	"github.com/steadyhttp/steady/fault"
	"github.com/steadyhttp/steady/pin"
	"github.com/steadyhttp/steady/request"
	"github.com/steadyhttp/steady/retry"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, auth) configured on the HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

var emptyHandlers = HandlerGroup{}
var nopLogger = zerolog.Nop()

// A Client is a robust HTTP client with retry support, response body
// decoding by content type, and optional certificate fingerprint
// pinning. Its zero value is a valid configuration.
//
// The zero value client uses http.DefaultClient (from net/http) as the
// HTTPDoer, the spec-driven retry.Default as the retry policy, a no-op
// logger, and an empty handler group (no event handlers/plug-ins).
//
// Client's HTTPDoer typically has internal state (cached TCP
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines:
// it keeps no mutable state across calls, so any number of Do calls
// may be in flight at once. Within one call, attempts are strictly
// sequential.
//
// A Client is higher-level than an HTTPDoer. The HTTPDoer is
// responsible for all details of sending the HTTP request and
// receiving the response, while Client builds on top of the HTTPDoer's
// feature set:
//
// • Client reads and buffers the entire HTTP response body and decodes
// it according to the declared content type (JSON, opaque bytes, or
// text — see package decode);
//
// • Client retries failed request attempts up to the spec's retry
// budget, with a constant delay between attempts, using a customizable
// retry policy;
//
// • Client bounds each individual request attempt with the spec's
// timeout;
//
// • Client classifies every failure into the package fault taxonomy
// and returns a typed terminal error, so callers can distinguish (for
// example) a timeout from a non-2xx status;
//
// • Client enforces certificate fingerprint pins on https requests
// that carry one; and
//
// • Client invokes user-provided handler functions at designated
// plug-in points within the attempt/retry loop, allowing new features
// to be mixed in from outside libraries.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard
	// net/http package is used.
	//
	// Requests whose spec carries a certificate pin bypass the
	// HTTPDoer: the pin must own the TLS configuration, so those
	// requests are sent on a pinned copy of Transport instead.
	HTTPDoer HTTPDoer
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.Default is used: retryable failures
	// are retried while the spec's MaxRetries budget lasts, spaced by
	// the spec's constant RetryDelay.
	RetryPolicy retry.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a request execution.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives structured leveled messages about attempts,
	// retries, failures, and certificate pin comparisons. Logging is
	// best-effort and side-channel only: no behavior depends on it.
	//
	// If Logger is nil, nothing is logged.
	Logger *zerolog.Logger
	// Transport is the base transport cloned for requests that carry a
	// certificate pin. The clone receives the pin's TLS verification
	// callback; Transport itself is never mutated.
	//
	// If Transport is nil, the default transport is cloned instead.
	Transport *http.Transport
}

// Do executes an HTTP request spec and returns the results, following
// the retry budget and attempt timeout set on the spec, and low-level
// policy set on the underlying HTTPDoer.
//
// The result returned is the result after the final HTTP request
// attempt made during the execution. Exactly one of the following
// holds on return: the error is nil and the execution holds a decoded
// 2xx response, or the error is non-nil and describes the terminal
// failure. The returned Execution is never nil; its Err field always
// references the same error as the returned error.
//
// Failures are classified per package fault. Transport errors,
// attempt timeouts, aborts, and non-2xx statuses are retried while the
// spec's MaxRetries budget lasts; decode failures and invalid input
// are terminal immediately. The terminal error is typed by kind:
// *fault.TimeoutError after timeout exhaustion, *fault.AbortError
// after abort exhaustion, *fault.StatusError (carrying the status code
// and decoded body) for a final non-2xx response, *decode.Error for an
// undecodable 2xx payload, *fault.ValidationError for locally invalid
// input, and the raw wrapped transport error otherwise.
//
// A spec with MaxRetries zero performs exactly one attempt regardless
// of outcome. Retries of one call are strictly sequential: there is
// never more than one attempt in flight.
//
// For simple use cases, the Get, Post, Put, Delete, and PostForm
// methods may prove easier to use than Do.
func (c *Client) Do(s *request.Spec) (*request.Execution, error) {
	e := &request.Execution{
		Spec: s,
	}

	log := c.logger()

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}

	if err := validate(s); err != nil {
		// Local input validation: terminal, zero attempts.
		handlers.run(BeforeExecutionStart, e)
		e.Start = time.Now()
		e.Err = err
		e.End = time.Now()
		handlers.run(AfterExecutionEnd, e)
		log.Error().Err(err).Msg("request rejected")
		return e, e.Err
	}

	doer := c.doerFor(s, log)

	retryPolicy := c.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.Default
	}

	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

RetryLoop:
	for {
		c.attempt(s, e, doer, handlers, log)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		if err := s.Context().Err(); err != nil && e.Err != nil {
			// The overall execution was torn down mid-failure; the
			// context error, not the attempt error, is terminal.
			e.Err = urlErrorWrap(s, err)
			break
		}
		if !retryPolicy.Decide(e) {
			break
		}
		wait := retryPolicy.Wait(e)
		log.Info().
			Str("url", s.URL.String()).
			Int("attempt", e.Attempt).
			Dur("delay", wait).
			Msg("retrying request")
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.Context().Done():
			timer.Stop()
			e.Err = urlErrorWrap(s, s.Context().Err())
			break RetryLoop
		}
		e.Response = nil
		e.Err = nil
		e.Raw = nil
		e.Body = decode.Body{}
		e.Attempt++
	}

	e.Err = terminalize(e.Err)
	e.End = time.Now()
	handlers.run(AfterExecutionEnd, e)

	if e.Err != nil {
		log.Error().
			Err(e.Err).
			Str("url", s.URL.String()).
			Int("attempts", e.Attempt+1).
			Msg("request failed")
		return e, e.Err
	}
	log.Info().
		Str("url", s.URL.String()).
		Int("status", e.StatusCode()).
		Int("attempts", e.Attempt+1).
		Msg("request succeeded")
	return e, nil
}

// attempt runs one request attempt: it opens the connection via the
// doer, streams and buffers the response payload, decodes it, and
// classifies the outcome into e.Err (nil means a decoded 2xx).
func (c *Client) attempt(s *request.Spec, e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, log zerolog.Logger) {
	ctx := s.Context()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	e.Request = s.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	log.Info().
		Str("method", s.Method).
		Str("url", s.URL.String()).
		Int("attempt", e.Attempt).
		Msg("sending request")
	resp, err := doer.Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(s, err)
		log.Error().
			Err(err).
			Str("url", s.URL.String()).
			Int("attempt", e.Attempt).
			Msg("request attempt failed")
		return
	}
	e.Response = resp
	c.receive(s, e, handlers)
}

// receive buffers the response payload to the end of the stream, then
// decodes it and classifies the status code. No incremental decoding:
// the payload is converted only once it is complete.
func (c *Client) receive(s *request.Spec, e *request.Execution, handlers *HandlerGroup) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	raw, err := io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(s, err)
		return
	}
	e.Raw = raw
	handlers.run(BeforeDecode, e)
	body, derr := decode.Decode(e.Raw, e.Response.Header.Get("Content-Type"))
	if success(e.StatusCode()) {
		if derr != nil {
			// An undecodable payload on a nominally successful
			// response is terminal: retrying would reproduce it.
			e.Err = derr
			return
		}
		e.Body = body
		return
	}
	// Non-2xx: a payload that fails to decode falls back to the
	// absent body; the status failure itself is what is classified.
	if derr == nil {
		e.Body = body
	}
	e.Err = &fault.StatusError{
		StatusCode: e.StatusCode(),
		Status:     e.Response.Status,
		Header:     e.Response.Header,
		Body:       e.Body,
	}
}

func success(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// terminalize types the terminal error of an execution by failure
// kind. Timeouts and aborts are surfaced as fixed-message typed errors
// rather than the raw transport payload; everything else is returned
// unchanged.
func terminalize(err error) error {
	switch fault.Categorize(err) {
	case fault.Timeout:
		return &fault.TimeoutError{Cause: err}
	case fault.Abort:
		return &fault.AbortError{Cause: err}
	default:
		return err
	}
}

// validate rejects specs that should never reach the network. The
// constructors in package request enforce the same rules; this guards
// hand-constructed specs.
func validate(s *request.Spec) error {
	if s.URL == nil {
		return &fault.ValidationError{Reason: "missing URL"}
	}
	if s.URL.Scheme != "http" && s.URL.Scheme != "https" {
		return &fault.ValidationError{Host: s.URL.String(), Reason: "unsupported scheme " + strconv.Quote(s.URL.Scheme)}
	}
	return nil
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request spec with custom headers, a retry budget, or a
// certificate pin, use request.New and Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.New and request.BodyBytes, namely:
// string; []byte; url.Values; map[string]string; io.Reader; and
// io.ReadCloser.
//
// To make a request spec with custom headers, use request.New and
// Client.Do.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// Put issues a PUT to the specified URL, using the same policies
// followed by Do. The body parameter follows the same rules as Post.
func (c *Client) Put(url, contentType string, body interface{}) (*request.Execution, error) {
	return Put(c, url, contentType, body)
}

// Delete issues a DELETE to the specified URL, using the same policies
// followed by Do. The optional body parameter follows the same rules
// as Post; pass nil for an empty body.
func (c *Client) Delete(url string, body interface{}) (*request.Execution, error) {
	return Delete(c, url, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.New and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}

// doerFor picks the transport mechanism for one spec. A pinned https
// spec is sent on a pinned clone of the client's base transport; the
// pin is consumed here, before the connection opens, and persists
// nowhere.
func (c *Client) doerFor(s *request.Spec, log zerolog.Logger) HTTPDoer {
	if s.Pin.IsZero() || s.URL.Scheme != "https" {
		return c.doer()
	}
	return &http.Client{Transport: pin.Transport(c.Transport, s.Pin, log)}
}

func (c *Client) logger() zerolog.Logger {
	if c.Logger == nil {
		return nopLogger
	}
	return *c.Logger
}

func urlErrorWrap(s *request.Spec, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(s.Method),
		URL: s.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

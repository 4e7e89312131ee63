// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/idna"

	"github.com/steadyhttp/steady/fault"
	"github.com/steadyhttp/steady/pin"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const nilCtxMsg = "steady/request: nil context"

// A Spec is the immutable per-call configuration of one logical HTTP
// request, for execution by a client.
//
// The logical request described by a Spec will typically result in one
// lower-level http.Request (net/http) attempt being made, but may
// result in multiple attempts if failed attempts need to be retried.
// The retry budget and spacing are part of the Spec itself: MaxRetries
// bounds the number of re-attempts and RetryDelay is the constant wait
// between consecutive attempts.
//
// Like the http.Request structure, a Spec has a context which controls
// the overall execution and can be used to cancel an inflight
// execution at any time.
type Spec struct {
	// Method specifies the HTTP method (GET, POST, PUT, DELETE, ...).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access. Its scheme is always http or
	// https; the constructors reject anything else before any network
	// activity happens.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent by the
	// client.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or
	// empty body indicates no request body should be sent, for example
	// on a GET or DELETE request.
	Body []byte

	// Timeout bounds each individual request attempt, covering
	// connection, request write, and response read. Zero means no
	// attempt timeout.
	Timeout time.Duration

	// MaxRetries is the maximum number of re-attempts after the
	// initial attempt. Zero, the default, means the request is
	// attempted exactly once regardless of outcome.
	MaxRetries int

	// RetryDelay is the constant wait between consecutive attempts.
	// Zero means a failed attempt is retried immediately. There is no
	// backoff multiplier: the delay is the same across all retries of
	// one call.
	RetryDelay time.Duration

	// Pin, when not the zero value, is the expected fingerprint of the
	// certificate the server must present during the TLS handshake.
	// It only applies to https targets, is consumed before the
	// connection opens, and is never persisted by the client.
	Pin pin.Fingerprint

	// Close stipulates whether to close the connection after sending
	// each lower-level (net/http) request and reading the response,
	// preventing re-use of TCP connections between request attempts.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host is sent.
	Host string

	// ctx allows the entire execution to be cancelled. It should only
	// be modified by copying the whole Spec using WithContext.
	ctx context.Context
}

// New wraps NewWithContext using the background context.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, url.Values, map[string]string, io.Reader, or io.ReadCloser.
// See BodyBytes for the conversion rules.
func New(method, url string, body interface{}) (*Spec, error) {
	return NewWithContext(context.Background(), method, url, body)
}

// NewWithContext returns a new Spec given a method, URL, and optional
// body.
//
// The URL must be fully qualified and its scheme must be http or
// https. A missing or unsupported scheme, or a missing host, is a
// *fault.ValidationError: the input is locally invalid and no network
// call will ever be attempted for it.
//
// If body is a url.Values or a map[string]string, it is form-encoded
// and, unless a Content-Type header is set later, the request is sent
// as application/x-www-form-urlencoded.
func NewWithContext(ctx context.Context, method, url string, body interface{}) (*Spec, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, &fault.ValidationError{Host: url, Reason: fmt.Sprintf("malformed URL: %v", err)}
	}
	switch u.Scheme {
	case "http", "https":
	case "":
		return nil, &fault.ValidationError{Host: url, Reason: "missing URL scheme"}
	default:
		return nil, &fault.ValidationError{Host: url, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &fault.ValidationError{Host: url, Reason: "missing host"}
	}
	return newSpec(ctx, method, u, body)
}

// A Target is a pre-split request destination for callers that carry
// scheme, host, port, and path as separate configuration values
// instead of one URL.
type Target struct {
	// Secure selects https when true and http otherwise.
	Secure bool

	// Host is the server to connect to, without port. It may contain
	// an international domain name.
	Host string

	// Port is the TCP port to connect to. Zero means the scheme
	// default.
	Port int

	// Path is the request path, with or without a leading slash. It
	// may carry a query string after a "?".
	Path string
}

// URL resolves the target into a full URL. A missing host is a
// *fault.ValidationError.
func (t Target) URL() (*urlpkg.URL, error) {
	if t.Host == "" {
		return nil, &fault.ValidationError{Host: t.Host, Reason: "missing host"}
	}
	scheme := "http"
	if t.Secure {
		scheme = "https"
	}
	host := t.Host
	if t.Port > 0 {
		host += ":" + strconv.Itoa(t.Port)
	}
	path := t.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := urlpkg.Parse(scheme + "://" + host + path)
	if err != nil {
		return nil, &fault.ValidationError{Host: t.Host, Reason: fmt.Sprintf("malformed target: %v", err)}
	}
	return u, nil
}

// NewFromTarget wraps NewFromTargetWithContext using the background
// context.
func NewFromTarget(method string, t Target, body interface{}) (*Spec, error) {
	return NewFromTargetWithContext(context.Background(), method, t, body)
}

// NewFromTargetWithContext returns a new Spec given a method, a
// pre-split Target, and an optional body. It behaves exactly like
// NewWithContext once the target is resolved into a URL: both
// front-ends feed the same execution engine.
func NewFromTargetWithContext(ctx context.Context, method string, t Target, body interface{}) (*Spec, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	u, err := t.URL()
	if err != nil {
		return nil, err
	}
	return newSpec(ctx, method, u, body)
}

func newSpec(ctx context.Context, method string, u *urlpkg.URL, body interface{}) (*Spec, error) {
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("steady/request: invalid method %q", method)
	}
	host, err := punycodeHost(u.Host)
	if err != nil {
		return nil, &fault.ValidationError{Host: u.Host, Reason: fmt.Sprintf("invalid host: %v", err)}
	}
	u.Host = host
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	s := &Spec{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}
	if formBody(body) {
		s.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return s, nil
}

// Context returns the spec's context. The context controls
// cancellation of the overall execution. To change the context, use
// WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (s *Spec) Context() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of s with its context changed to
// ctx, which must be non-nil.
//
// The context controls the entire lifetime of the logical request and
// its execution: making individual request attempts, running event
// handlers, and waiting out the retry delay. Cancelling it tears the
// execution down with an abort failure.
func (s *Spec) WithContext(ctx context.Context) *Spec {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	s2 := new(Spec)
	*s2 = *s
	s2.ctx = ctx
	return s2
}

// SetBasicAuth sets the spec's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (s *Spec) SetBasicAuth(username, password string) {
	s.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates an HTTP request corresponding to the given spec,
// for one attempt within an execution. The context of the new request
// is set to ctx, which may not be nil.
func (s *Spec) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = s.Method
	r.URL = s.URL
	r.Header = s.Header
	if len(s.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(s.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(s.Body)), nil
		}
		r.ContentLength = int64(len(s.Body))
	}
	r.Close = s.Close
	r.Host = s.Host
	return r
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a valid HTTP token per RFC
// 7230 section 3.2.6. Method grammar is the token grammar, so the
// httpguts field-name check applies unchanged.
func validMethod(method string) bool {
	return httpguts.ValidHeaderFieldName(method)
}

// punycodeHost converts an international domain name in host to its
// ASCII form and strips an empty port, leaving ASCII hosts untouched.
func punycodeHost(host string) (string, error) {
	host = removeEmptyPort(host)
	if isASCII(host) {
		return host, nil
	}
	name, port := host, ""
	if hasPort(host) {
		i := strings.LastIndexByte(host, ':')
		name, port = host[:i], host[i:]
	}
	a, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", err
	}
	return a + port, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}

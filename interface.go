// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package steady

import (
	"net/url"

	"github.com/steadyhttp/steady/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request spec and returns the final execution
// state (and error, if any). Client implements the Doer interface, and
// any other Doer implementation must behave substantially the same as
// Client.Do: every failure is materialized into the returned error,
// never raised past the call boundary, so callers distinguish success
// from failure by inspecting the error result alone.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(s *request.Spec) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get creates an HTTP request spec to issue a GET to the specified
// URL, executes the spec, and returns the final execution state (and
// error, if any). Client implements the Getter interface.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post creates an HTTP request spec to issue a POST to the specified
// URL, executes the spec, and returns the final execution state (and
// error, if any). Client implements the Poster interface.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.New and request.BodyBytes, namely:
// string; []byte; url.Values; map[string]string; io.Reader; and
// io.ReadCloser.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Execution, error)
}

// Putter is the interface that wraps the basic Put method.
//
// Put creates an HTTP request spec to issue a PUT to the specified
// URL, executes the spec, and returns the final execution state (and
// error, if any). Client implements the Putter interface. The body
// parameter follows the same rules as Poster.
//
// Any Doer can be used to emulate a Putter via the Put function.
type Putter interface {
	Put(url, contentType string, body interface{}) (*request.Execution, error)
}

// Deleter is the interface that wraps the basic Delete method.
//
// Delete creates an HTTP request spec to issue a DELETE to the
// specified URL, executes the spec, and returns the final execution
// state (and error, if any). Client implements the Deleter interface.
// The optional body parameter follows the same rules as Poster.
//
// Any Doer can be used to emulate a Deleter via the Delete function.
type Deleter interface {
	Delete(url string, body interface{}) (*request.Execution, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// PostForm creates an HTTP request spec to issue a form POST to the
// specified URL, executes the spec, and returns the final execution
// state (and error, if any). Client implements the FormPoster
// interface.
//
// The request body is set to the URL-encoded keys and values from
// data, and the content type is set to
// application/x-www-form-urlencoded.
//
// Any Doer can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser is the interface that wraps the basic
// CloseIdleConnections method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Get, Post, Put,
// Delete, PostForm, and CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Getter
	Poster
	Putter
	Deleter
	FormPoster
	IdleCloser
}

// Get uses the specified Doer to issue a GET to the specified URL,
// using the same policies as d.Do.
//
// To make a request spec with custom headers, a retry budget, or a
// certificate pin, use request.New and d.Do.
func Get(d Doer, url string) (*request.Execution, error) {
	s, err := request.New("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(s)
}

// Post uses the specified Doer to issue a POST to the specified URL,
// using the same policies as d.Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.New and request.BodyBytes, namely:
// string; []byte; url.Values; map[string]string; io.Reader; and
// io.ReadCloser.
//
// To make a request spec with custom headers, use request.New and
// d.Do.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return bodyCall(d, "POST", url, contentType, body)
}

// Put uses the specified Doer to issue a PUT to the specified URL,
// using the same policies as d.Do. The body parameter follows the same
// rules as Post.
func Put(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	return bodyCall(d, "PUT", url, contentType, body)
}

// Delete uses the specified Doer to issue a DELETE to the specified
// URL, using the same policies as d.Do. The optional body parameter
// follows the same rules as Post; pass nil for an empty body.
func Delete(d Doer, url string, body interface{}) (*request.Execution, error) {
	return bodyCall(d, "DELETE", url, "", body)
}

// PostForm uses the specified Doer to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.New and d.Do.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data.Encode())
}

func bodyCall(d Doer, method, url, contentType string, body interface{}) (*request.Execution, error) {
	s, err := request.New(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		s.Header.Set("Content-Type", contentType)
	}
	return d.Do(s)
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that
// only has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("steady: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(s *request.Spec) (*request.Execution, error) {
	return i.doer.Do(s)
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) Put(url, contentType string, body interface{}) (*request.Execution, error) {
	return Put(i.doer, url, contentType, body)
}

func (i inflated) Delete(url string, body interface{}) (*request.Execution, error) {
	return Delete(i.doer, url, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package steady

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/steadyhttp/steady/decode"
	"github.com/steadyhttp/steady/fault"
	"github.com/steadyhttp/steady/request"
	"github.com/steadyhttp/steady/retry"
)

func TestClientDoZeroValue(t *testing.T) {
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(response(200, "application/json", `{"key":"value"}`), nil).
		Once()
	cl := &Client{HTTPDoer: doer}

	e, err := cl.Get("http://example.com/a")

	doer.AssertExpectations(t)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.NoError(t, e.Err)
	assert.Equal(t, 200, e.StatusCode())
	assert.Equal(t, 0, e.Attempt)
	assert.Equal(t, decode.KindJSON, e.Body.Kind)
	assert.Equal(t, map[string]interface{}{"key": "value"}, e.Body.JSON)
	assert.True(t, e.Started())
	assert.True(t, e.Ended())
}

func TestClientDoSingleAttemptOnZeroBudget(t *testing.T) {
	// A spec whose MaxRetries is zero performs exactly one attempt
	// regardless of outcome.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(nil, errors.New("connection refused")).
		Once()
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	doer.AssertNumberOfCalls(t, "Do", 1)
	require.Error(t, err)
	assert.Same(t, err, e.Err)
	assert.Equal(t, 0, e.Attempt)
	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	assert.Equal(t, "Get", urlErr.Op)
}

func TestClientDoRetryUntilSuccess(t *testing.T) {
	// k failed attempts within budget followed by a success end the
	// execution successfully after k+1 attempts.
	for _, k := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			doer := newMockHTTPDoer(t)
			doer.On("Do", mock.Anything).
				Return(nil, errors.New("connection reset")).
				Times(k)
			doer.On("Do", mock.Anything).
				Return(response(200, "text/plain", "ok"), nil).
				Once()
			cl := &Client{HTTPDoer: doer}
			s, err := request.New("GET", "http://example.com", nil)
			require.NoError(t, err)
			s.MaxRetries = 3

			e, err := cl.Do(s)

			doer.AssertExpectations(t)
			doer.AssertNumberOfCalls(t, "Do", k+1)
			require.NoError(t, err)
			assert.Equal(t, k, e.Attempt)
			assert.Equal(t, decode.KindText, e.Body.Kind)
			assert.Equal(t, "ok", e.Body.Text)
		})
	}
}

func TestClientDoRetryExhaustion(t *testing.T) {
	// If every attempt fails, the execution makes MaxRetries+1
	// attempts and surfaces the final attempt's failure.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(nil, errors.New("connection refused"))
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 2

	e, err := cl.Do(s)

	doer.AssertNumberOfCalls(t, "Do", 3)
	require.Error(t, err)
	assert.Equal(t, 2, e.Attempt)
	assert.Equal(t, fault.Transport, fault.Categorize(err))
}

func TestClientDoRetrySpacing(t *testing.T) {
	// Consecutive attempts of one call are spaced at least RetryDelay
	// apart, with no backoff multiplier.
	const delay = 50 * time.Millisecond
	var stamps []time.Time
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(nil, errors.New("connection refused")).
		Run(func(_ mock.Arguments) {
			stamps = append(stamps, time.Now())
		})
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 2
	s.RetryDelay = delay

	_, _ = cl.Do(s)

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay)
	}
}

func TestClientDoRetryStatus(t *testing.T) {
	// Non-2xx responses are retryable. The terminal error of an
	// exhausted budget carries the final status code and decoded body.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(response(503, "application/json", `{"error":"busy"}`), nil).
		Twice()
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 1

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	require.Error(t, err)
	var statusErr *fault.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Equal(t, decode.KindJSON, statusErr.Body.Kind)
	assert.Equal(t, map[string]interface{}{"error": "busy"}, statusErr.Body.JSON)
	assert.Equal(t, 503, e.StatusCode())
}

func TestClientDoDecodeFailureIsTerminal(t *testing.T) {
	// An undecodable payload on a 2xx response ends the execution
	// immediately, even with retry budget remaining.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(response(200, "application/json", `{"key":`), nil).
		Once()
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 5

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	doer.AssertNumberOfCalls(t, "Do", 1)
	require.Error(t, err)
	var decodeErr *decode.Error
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "application/json", decodeErr.ContentType)
	assert.Equal(t, 0, e.Attempt)
	assert.Equal(t, []byte(`{"key":`), e.Raw)
	assert.True(t, e.Body.Absent())
}

func TestClientDoEmptyBody(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// A 2xx response with an empty payload succeeds with an
		// absent body no matter what content type it declares.
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).
			Return(response(204, "application/json", ""), nil).
			Once()
		cl := &Client{HTTPDoer: doer}

		e, err := cl.Get("http://example.com")

		doer.AssertExpectations(t)
		require.NoError(t, err)
		assert.Equal(t, 204, e.StatusCode())
		assert.True(t, e.Body.Absent())
	})
	t.Run("failure", func(t *testing.T) {
		// A non-2xx response with an empty payload is still a
		// failure; the status error carries the absent body.
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).
			Return(response(500, "text/plain", ""), nil).
			Once()
		cl := &Client{HTTPDoer: doer}

		e, err := cl.Get("http://example.com")

		doer.AssertExpectations(t)
		require.Error(t, err)
		var statusErr *fault.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 500, statusErr.StatusCode)
		assert.True(t, statusErr.Body.Absent())
		assert.True(t, e.Body.Absent())
	})
}

func TestClientDoValidation(t *testing.T) {
	// A locally invalid spec never reaches the network: zero attempts,
	// but the execution start/end events still fire.
	testCases := []struct {
		name   string
		spec   *request.Spec
		reason string
	}{
		{
			name:   "missing URL",
			spec:   &request.Spec{Method: "GET"},
			reason: "missing URL",
		},
		{
			name:   "unsupported scheme",
			spec:   &request.Spec{Method: "GET", URL: &url.URL{Scheme: "ftp", Host: "example.com"}},
			reason: `unsupported scheme "ftp"`,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			doer := newMockHTTPDoer(t)
			cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
			tr := cl.addTraceHandlers()

			e, err := cl.Do(testCase.spec)

			doer.AssertNumberOfCalls(t, "Do", 0)
			require.Error(t, err)
			var validationErr *fault.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, testCase.reason, validationErr.Reason)
			assert.Equal(t, fault.Validation, fault.Categorize(err))
			assert.Nil(t, e.Response)
			assert.Equal(t, []string{"BeforeExecutionStart", "AfterExecutionEnd"}, tr.calls)
		})
	}
}

func TestClientDoTimeout(t *testing.T) {
	// Attempt timeouts are retried within budget; exhaustion surfaces
	// the fixed-message typed timeout error.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(nil, timeoutError{}).
		Twice()
	cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
	timeouts := cl.Handlers.mock(AfterAttemptTimeout)
	timeouts.On("Handle", AfterAttemptTimeout, mock.Anything).Twice()
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 1

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	timeouts.AssertExpectations(t)
	require.Error(t, err)
	assert.EqualError(t, err, "Failed due timeout reason")
	var timeoutErr *fault.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 2, e.AttemptTimeouts)
	assert.True(t, e.Timeout())
}

func TestClientDoAbort(t *testing.T) {
	// Cancelling the spec's context tears the execution down with the
	// fixed-message typed abort error, with no further attempts.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(nil, context.Canceled).
		Once()
	cl := &Client{HTTPDoer: doer}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := request.NewWithContext(ctx, "GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 5

	e, err := cl.Do(s)

	doer.AssertNumberOfCalls(t, "Do", 1)
	require.Error(t, err)
	assert.EqualError(t, err, "Failed due abort reason")
	var abortErr *fault.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, 0, e.Attempt)
}

func TestClientDoAbortDuringRetryWait(t *testing.T) {
	doer := newMockHTTPDoer(t)
	ctx, cancel := context.WithCancel(context.Background())
	doer.On("Do", mock.Anything).
		Return(nil, errors.New("connection refused")).
		Run(func(_ mock.Arguments) { cancel() }).
		Once()
	cl := &Client{HTTPDoer: doer}
	s, err := request.NewWithContext(ctx, "GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 5
	s.RetryDelay = time.Hour

	e, err := cl.Do(s)

	doer.AssertNumberOfCalls(t, "Do", 1)
	require.Error(t, err)
	var abortErr *fault.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, 0, e.Attempt)
}

func TestClientDoCustomRetryPolicy(t *testing.T) {
	// An installed retry policy replaces the spec-budget default.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(response(429, "text/plain", "slow down"), nil).
		Times(3)
	policy := newMockRetryPolicy(t)
	policy.On("Decide", mock.Anything).Return(true).Twice()
	policy.On("Decide", mock.Anything).Return(false).Once()
	policy.On("Wait", mock.Anything).Return(time.Duration(0)).Twice()
	cl := &Client{HTTPDoer: doer, RetryPolicy: policy}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	policy.AssertExpectations(t)
	require.Error(t, err)
	assert.Equal(t, 2, e.Attempt)
	assert.Equal(t, 429, e.StatusCode())
}

func TestClientDoStateResetBetweenAttempts(t *testing.T) {
	// A retried attempt starts from a clean slate: the prior
	// response, raw payload, decoded body, and error are cleared.
	doer := newMockHTTPDoer(t)
	doer.On("Do", mock.Anything).
		Return(response(500, "text/plain", "boom"), nil).
		Once()
	doer.On("Do", mock.Anything).
		Return(response(200, "", ""), nil).
		Once()
	cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
	var sawClean bool
	cl.Handlers.PushBack(BeforeAttempt, HandlerFunc(func(_ Event, e *request.Execution) {
		if e.Attempt == 1 {
			sawClean = e.Response == nil && e.Err == nil && e.Raw == nil && e.Body.Absent()
		}
	}))
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.MaxRetries = 1

	e, err := cl.Do(s)

	doer.AssertExpectations(t)
	require.NoError(t, err)
	assert.True(t, sawClean)
	assert.Equal(t, 1, e.Attempt)
}

func TestClientDoEventOrder(t *testing.T) {
	t.Run("single attempt", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).
			Return(response(200, "text/plain", "ok"), nil).
			Once()
		cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
		tr := cl.addTraceHandlers()

		_, err := cl.Get("http://example.com")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"BeforeExecutionStart",
			"BeforeAttempt",
			"BeforeDecode",
			"AfterAttempt",
			"AfterExecutionEnd",
		}, tr.calls)
	})
	t.Run("transport error", func(t *testing.T) {
		// BeforeDecode never fires when no response was received.
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).
			Return(nil, errors.New("connection refused")).
			Once()
		cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
		tr := cl.addTraceHandlers()

		_, err := cl.Get("http://example.com")

		require.Error(t, err)
		assert.Equal(t, []string{
			"BeforeExecutionStart",
			"BeforeAttempt",
			"AfterAttempt",
			"AfterExecutionEnd",
		}, tr.calls)
	})
	t.Run("retried attempt", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).
			Return(nil, timeoutError{}).
			Once()
		doer.On("Do", mock.Anything).
			Return(response(200, "text/plain", "ok"), nil).
			Once()
		cl := &Client{HTTPDoer: doer, Handlers: &HandlerGroup{}}
		tr := cl.addTraceHandlers()
		s, err := request.New("GET", "http://example.com", nil)
		require.NoError(t, err)
		s.MaxRetries = 1

		_, err = cl.Do(s)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"BeforeExecutionStart",
			"BeforeAttempt",
			"AfterAttemptTimeout",
			"AfterAttempt",
			"BeforeAttempt",
			"BeforeDecode",
			"AfterAttempt",
			"AfterExecutionEnd",
		}, tr.calls)
	})
}

func TestClientDoAttemptTimeout(t *testing.T) {
	// The spec's Timeout bounds each individual attempt via the
	// request context.
	doer := newMockHTTPDoer(t)
	var deadlineSet bool
	doer.On("Do", mock.Anything).
		Return(response(200, "", ""), nil).
		Run(func(args mock.Arguments) {
			r := args.Get(0).(*http.Request)
			_, deadlineSet = r.Context().Deadline()
		}).
		Once()
	cl := &Client{HTTPDoer: doer}
	s, err := request.New("GET", "http://example.com", nil)
	require.NoError(t, err)
	s.Timeout = time.Minute

	_, err = cl.Do(s)

	require.NoError(t, err)
	assert.True(t, deadlineSet)
}

func TestClientHTTPMethods(t *testing.T) {
	testCases := []struct {
		name   string
		call   func(cl *Client) (*request.Execution, error)
		method string
		body   string
		header http.Header
	}{
		{
			name:   "Get",
			call:   func(cl *Client) (*request.Execution, error) { return cl.Get("http://example.com") },
			method: "GET",
		},
		{
			name: "Post",
			call: func(cl *Client) (*request.Execution, error) {
				return cl.Post("http://example.com", "text/plain", "hello")
			},
			method: "POST",
			body:   "hello",
			header: http.Header{"Content-Type": []string{"text/plain"}},
		},
		{
			name: "Put",
			call: func(cl *Client) (*request.Execution, error) {
				return cl.Put("http://example.com", "application/json", []byte(`{}`))
			},
			method: "PUT",
			body:   `{}`,
			header: http.Header{"Content-Type": []string{"application/json"}},
		},
		{
			name:   "Delete",
			call:   func(cl *Client) (*request.Execution, error) { return cl.Delete("http://example.com", nil) },
			method: "DELETE",
		},
		{
			name: "PostForm",
			call: func(cl *Client) (*request.Execution, error) {
				return cl.PostForm("http://example.com", url.Values{"k": []string{"v"}})
			},
			method: "POST",
			body:   "k=v",
			header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			doer := newMockHTTPDoer(t)
			doer.On("Do", mock.Anything).
				Return(response(200, "text/plain", "ok"), nil).
				Once()
			cl := &Client{HTTPDoer: doer}

			e, err := testCase.call(cl)

			doer.AssertExpectations(t)
			require.NoError(t, err)
			require.NotNil(t, e.Spec)
			assert.Equal(t, testCase.method, e.Spec.Method)
			assert.Equal(t, testCase.body, string(e.Spec.Body))
			for key, value := range testCase.header {
				assert.Equal(t, value, e.Spec.Header[key])
			}
		})
	}
}

func TestClientCloseIdleConnections(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		doer := newMockHTTPDoerWithCloseIdleConnections(t)
		doer.On("CloseIdleConnections").Once()
		cl := &Client{HTTPDoer: doer}

		cl.CloseIdleConnections()

		doer.AssertExpectations(t)
	})
	t.Run("unsupported", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		cl := &Client{HTTPDoer: doer}

		assert.NotPanics(t, func() {
			cl.CloseIdleConnections()
		})
	})
}

func response(statusCode int, contentType, body string) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type mockHTTPDoer struct {
	mock.Mock
}

func newMockHTTPDoer(t *testing.T) *mockHTTPDoer {
	m := &mockHTTPDoer{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoer) Do(r *http.Request) (*http.Response, error) {
	args := m.Called(r)
	err := args.Error(1)
	if resp, ok := args.Get(0).(*http.Response); ok {
		return resp, err
	}
	return nil, err
}

type mockHTTPDoerWithCloseIdleConnections struct {
	mockHTTPDoer
}

func newMockHTTPDoerWithCloseIdleConnections(t *testing.T) *mockHTTPDoerWithCloseIdleConnections {
	m := &mockHTTPDoerWithCloseIdleConnections{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoerWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}

type mockRetryPolicy struct {
	mock.Mock
}

func newMockRetryPolicy(t *testing.T) *mockRetryPolicy {
	m := &mockRetryPolicy{}
	m.Test(t)
	return m
}

func (m *mockRetryPolicy) Decide(e *request.Execution) bool {
	args := m.Called(e)
	return args.Bool(0)
}

func (m *mockRetryPolicy) Wait(e *request.Execution) time.Duration {
	args := m.Called(e)
	return args.Get(0).(time.Duration)
}

var _ retry.Policy = (*mockRetryPolicy)(nil)

func (g *HandlerGroup) mock(evt Event) *mockHandler {
	if int(evt) < len(g.handlers) {
		for _, h := range g.handlers[evt] {
			if m, ok := h.(*mockHandler); ok {
				return m
			}
		}
	}
	m := &mockHandler{}
	g.PushBack(evt, m)
	return m
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(evt Event, e *request.Execution) {
	m.Called(evt, e)
}

type trace struct {
	calls []string
}

func (c *Client) addTraceHandlers() *trace {
	tr := &trace{}
	h := HandlerFunc(func(evt Event, _ *request.Execution) {
		tr.calls = append(tr.calls, evt.Name())
	})
	for _, evt := range Events() {
		c.Handlers.PushBack(evt, h)
	}
	return tr
}

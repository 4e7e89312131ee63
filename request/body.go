// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	urlpkg "net/url"
)

const badBodyTypeMsg = "steady/request: invalid type (for body use nil, " +
	"string, []byte, url.Values, map[string]string, io.Reader or io.ReadCloser)"

// BodyBytes converts a generic body parameter to a byte slice for use
// as a request body.
//
// The conversion logic is:
//
// • If body is nil, a nil byte slice and no error is returned.
//
// • If body is a []byte, body itself and no error is returned.
//
// • If body is a string, the built-in conversion from string to byte
// slice, and no error, is returned.
//
// • If body is a url.Values or a map[string]string, its keys and
// values are URL-encoded in application/x-www-form-urlencoded form.
//
// • If body is an io.Reader or io.ReadCloser, the result of reading
// the whole contents of the reader (and closing it if it implements
// Closer) is returned.
//
// • If body is any other type than those listed above, a nil byte
// slice and an error is returned.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case urlpkg.Values:
		return []byte(x.Encode()), nil
	case map[string]string:
		v := make(urlpkg.Values, len(x))
		for key, value := range x {
			v.Set(key, value)
		}
		return []byte(v.Encode()), nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// formBody reports whether body is a structured value that BodyBytes
// form-encodes, meaning the request should default to the
// application/x-www-form-urlencoded content type.
func formBody(body interface{}) bool {
	switch body.(type) {
	case urlpkg.Values, map[string]string:
		return true
	}
	return false
}

// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package decode

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// A Kind identifies the representation of a decoded response body.
type Kind int

const (
	// KindAbsent indicates that no response body was received. It is
	// the Kind of the zero value Body, and is deliberately distinct
	// from an empty text or an empty byte sequence: a server that
	// sends nothing produces an absent body, not an empty one.
	KindAbsent Kind = iota
	// KindJSON indicates a body parsed from a JSON document. The
	// parsed value is in the Body's JSON field.
	KindJSON
	// KindBytes indicates an opaque binary body. The raw bytes are in
	// the Body's Bytes field.
	KindBytes
	// KindText indicates a body decoded as UTF-8 text. The text is in
	// the Body's Text field.
	KindText
)

var kindNames = []string{
	"Absent",
	"JSON",
	"Bytes",
	"Text",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A Body is a response payload converted from raw bytes into a
// structured or textual representation based on the declared content
// type of the response.
//
// Exactly one of the JSON, Bytes, and Text fields is meaningful,
// identified by Kind. The zero value represents an absent body.
type Body struct {
	// Kind identifies which of the remaining fields carries the
	// decoded value.
	Kind Kind

	// JSON holds the parsed JSON value when Kind is KindJSON. Its
	// dynamic type follows the encoding/json unmarshaling rules for
	// untyped destinations: map[string]interface{} for objects,
	// []interface{} for arrays, and so on.
	JSON interface{}

	// Bytes holds the opaque binary payload when Kind is KindBytes.
	Bytes []byte

	// Text holds the decoded text when Kind is KindText.
	Text string
}

// Absent reports whether the body is absent, i.e. whether no response
// payload was received at all.
func (b Body) Absent() bool {
	return b.Kind == KindAbsent
}

// binaryTypes lists the media types whose payloads are never decoded
// as text. Immutable after initialization.
var binaryTypes = map[string]bool{
	"application/pdf": true,
	"application/p7s": true,
}

// binaryPrefixes lists the media type prefixes whose payloads are
// never decoded as text. Immutable after initialization.
var binaryPrefixes = []string{
	"image/",
}

// Decode converts a buffered response payload into a Body according to
// the declared content type. It is a pure function: decoding the same
// input twice yields identical results.
//
// The classification rules are:
//
// • An empty payload decodes to the absent body regardless of content
// type.
//
// • A content type matching the prefix application/json (case
// insensitive, parameters such as charset ignored) is parsed as a JSON
// document. A malformed document returns a non-nil *Error.
//
// • A content type equal to application/pdf or application/p7s, or
// matching the prefix image/, is returned as an opaque byte sequence.
//
// • Any other content type, including a missing one, is decoded as
// text.
func Decode(data []byte, contentType string) (Body, error) {
	if len(data) == 0 {
		return Body{}, nil
	}
	mt := mediaType(contentType)
	switch {
	case strings.HasPrefix(mt, "application/json"):
		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return Body{}, &Error{ContentType: contentType, cause: err}
		}
		return Body{Kind: KindJSON, JSON: v}, nil
	case binary(mt):
		b := make([]byte, len(data))
		copy(b, data)
		return Body{Kind: KindBytes, Bytes: b}, nil
	default:
		return Body{Kind: KindText, Text: string(data)}, nil
	}
}

func binary(mt string) bool {
	if binaryTypes[mt] {
		return true
	}
	for _, prefix := range binaryPrefixes {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return false
}

// mediaType normalizes a Content-Type header value to its bare media
// type in lowercase, tolerating malformed parameter lists.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
		if i := strings.IndexByte(mt, ';'); i != -1 {
			mt = mt[:i]
		}
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// An Error indicates that a response payload could not be decoded
// according to its declared content type. A decode failure is a local
// condition: reissuing the request would reproduce the same malformed
// payload, so the request executor never retries after one.
type Error struct {
	// ContentType is the declared content type of the payload that
	// failed to decode.
	ContentType string

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("steady/decode: cannot decode %q response body: %v", e.ContentType, e.cause)
}

// Unwrap returns the underlying parse error.
func (e *Error) Unwrap() error {
	return e.cause
}

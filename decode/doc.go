// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package decode converts buffered HTTP response payloads into structured
values based on their declared content type.

JSON media types are parsed into untyped values, a fixed set of binary
media types (and all image types) are passed through as opaque bytes,
and everything else is decoded as text. An empty payload always decodes
to the absent body, never to an empty string or empty byte slice.
*/
package decode

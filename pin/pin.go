// Copyright 2026 The steady Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pin

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// A Fingerprint is the expected cryptographic digest of the leaf
// certificate a server presents during the TLS handshake. The zero
// value means no pinning.
//
// SHA-256 fingerprints are preferred; SHA-1 fingerprints are accepted
// as a legacy fallback. The digest length selects the algorithm.
type Fingerprint struct {
	digest []byte
	alg    string
}

// New parses a hex-encoded certificate fingerprint. Colon and space
// separators, as produced by most certificate tooling, are tolerated,
// and letter case is ignored.
//
// A 32-byte digest is compared using SHA-256 and a 20-byte digest
// using legacy SHA-1. Any other length is an error.
func New(s string) (Fingerprint, error) {
	norm := strings.NewReplacer(":", "", " ", "").Replace(s)
	digest, err := hex.DecodeString(norm)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("steady/pin: invalid fingerprint %q: %w", s, err)
	}
	switch len(digest) {
	case sha256.Size:
		return Fingerprint{digest: digest, alg: "sha256"}, nil
	case sha1.Size:
		return Fingerprint{digest: digest, alg: "sha1"}, nil
	default:
		return Fingerprint{}, fmt.Errorf("steady/pin: fingerprint %q has %d bytes, want %d (SHA-256) or %d (SHA-1)",
			s, len(digest), sha256.Size, sha1.Size)
	}
}

// FromCertificate returns the SHA-256 fingerprint of the given
// certificate. It is mainly useful for tests and for tooling that
// derives the expected fingerprint from a known-good certificate.
func FromCertificate(cert *x509.Certificate) Fingerprint {
	digest := sha256.Sum256(cert.Raw)
	return Fingerprint{digest: digest[:], alg: "sha256"}
}

// IsZero reports whether the fingerprint is the zero value, meaning no
// pinning is configured.
func (f Fingerprint) IsZero() bool {
	return f.digest == nil
}

// Algorithm returns "sha256" or "sha1", or the empty string for the
// zero value.
func (f Fingerprint) Algorithm() string {
	return f.alg
}

// String returns the fingerprint as lowercase hex without separators.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f.digest)
}

// Verify compares the certificate presented by host against the
// expected fingerprint. It returns nil if the digests match and an
// error naming the mismatched host otherwise.
//
// Both outcomes are logged at info level for audit. Verify performs no
// I/O and is safe to call from within a TLS handshake.
func (f Fingerprint) Verify(host string, cert *x509.Certificate, log zerolog.Logger) error {
	got := f.digestOf(cert)
	if bytes.Equal(got, f.digest) {
		log.Info().
			Str("host", host).
			Str("alg", f.alg).
			Str("digest", hex.EncodeToString(got)).
			Msg("certificate fingerprint match")
		return nil
	}
	err := fmt.Errorf("certificate fingerprint mismatch for host %s", host)
	log.Info().
		Str("host", host).
		Str("alg", f.alg).
		Str("want", f.String()).
		Str("got", hex.EncodeToString(got)).
		Msg("certificate fingerprint mismatch")
	return err
}

func (f Fingerprint) digestOf(cert *x509.Certificate) []byte {
	if f.alg == "sha1" {
		digest := sha1.Sum(cert.Raw)
		return digest[:]
	}
	digest := sha256.Sum256(cert.Raw)
	return digest[:]
}

// TLSConfig returns a copy of base with a handshake verification
// callback that rejects any connection whose leaf certificate does not
// match the fingerprint. The callback runs once per handshake, after
// standard certificate verification. Base is never mutated; a nil base
// is treated as an empty configuration.
//
// If the fingerprint is the zero value, the returned configuration is
// a plain copy of base.
func TLSConfig(base *tls.Config, f Fingerprint, log zerolog.Logger) *tls.Config {
	var cfg *tls.Config
	if base == nil {
		cfg = &tls.Config{}
	} else {
		cfg = base.Clone()
	}
	if f.IsZero() {
		return cfg
	}
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return fmt.Errorf("no certificate presented by host %s", cs.ServerName)
		}
		return f.Verify(cs.ServerName, cs.PeerCertificates[0], log)
	}
	return cfg
}

// Transport returns a copy of base whose TLS configuration enforces
// the fingerprint, for use as an http.RoundTripper on pinned requests.
// Base is never mutated; a nil base is treated as the default
// transport.
func Transport(base *http.Transport, f Fingerprint, log zerolog.Logger) *http.Transport {
	var t *http.Transport
	if base == nil {
		t = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		t = base.Clone()
	}
	t.TLSClientConfig = TLSConfig(t.TLSClientConfig, f, log)
	return t
}

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
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCert = &x509.Certificate{Raw: []byte("not a real DER certificate")}

func sha256Hex(cert *x509.Certificate) string {
	digest := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(digest[:])
}

func sha1Hex(cert *x509.Certificate) string {
	digest := sha1.Sum(cert.Raw)
	return hex.EncodeToString(digest[:])
}

func TestNew(t *testing.T) {
	t.Run("sha256", func(t *testing.T) {
		f, err := New(sha256Hex(testCert))
		require.NoError(t, err)
		assert.Equal(t, "sha256", f.Algorithm())
		assert.False(t, f.IsZero())
	})
	t.Run("sha1 legacy", func(t *testing.T) {
		f, err := New(sha1Hex(testCert))
		require.NoError(t, err)
		assert.Equal(t, "sha1", f.Algorithm())
	})
	t.Run("separators and case", func(t *testing.T) {
		plain, err := New(sha256Hex(testCert))
		require.NoError(t, err)
		colons := strings.ToUpper(withColons(plain.String()))
		f, err := New(colons)
		require.NoError(t, err)
		assert.Equal(t, plain.String(), f.String())
	})
	t.Run("not hex", func(t *testing.T) {
		_, err := New("zz:zz")
		assert.Error(t, err)
	})
	t.Run("wrong length", func(t *testing.T) {
		_, err := New("abcdef")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bytes")
	})
	t.Run("zero value", func(t *testing.T) {
		var f Fingerprint
		assert.True(t, f.IsZero())
		assert.Equal(t, "", f.Algorithm())
		assert.Equal(t, "", f.String())
	})
}

func TestFromCertificate(t *testing.T) {
	f := FromCertificate(testCert)
	assert.Equal(t, "sha256", f.Algorithm())
	assert.Equal(t, sha256Hex(testCert), f.String())
}

func TestVerify(t *testing.T) {
	t.Run("sha256 match", func(t *testing.T) {
		var buf bytes.Buffer
		log := zerolog.New(&buf)
		f := FromCertificate(testCert)
		err := f.Verify("example.com", testCert, log)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "example.com")
		assert.Contains(t, buf.String(), "match")
	})
	t.Run("sha1 match", func(t *testing.T) {
		f, err := New(sha1Hex(testCert))
		require.NoError(t, err)
		assert.NoError(t, f.Verify("example.com", testCert, zerolog.Nop()))
	})
	t.Run("mismatch names host", func(t *testing.T) {
		var buf bytes.Buffer
		log := zerolog.New(&buf)
		other := &x509.Certificate{Raw: []byte("a different certificate")}
		f := FromCertificate(testCert)
		err := f.Verify("bad.example.com", other, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.example.com")
		assert.Contains(t, buf.String(), "mismatch")
	})
}

func TestTLSConfig(t *testing.T) {
	f := FromCertificate(testCert)
	t.Run("installs callback", func(t *testing.T) {
		cfg := TLSConfig(nil, f, zerolog.Nop())
		require.NotNil(t, cfg.VerifyConnection)
		err := cfg.VerifyConnection(tls.ConnectionState{
			ServerName:       "example.com",
			PeerCertificates: []*x509.Certificate{testCert},
		})
		assert.NoError(t, err)
	})
	t.Run("rejects mismatched certificate", func(t *testing.T) {
		cfg := TLSConfig(nil, f, zerolog.Nop())
		other := &x509.Certificate{Raw: []byte("a different certificate")}
		err := cfg.VerifyConnection(tls.ConnectionState{
			ServerName:       "example.com",
			PeerCertificates: []*x509.Certificate{other},
		})
		assert.Error(t, err)
	})
	t.Run("rejects missing certificate", func(t *testing.T) {
		cfg := TLSConfig(nil, f, zerolog.Nop())
		err := cfg.VerifyConnection(tls.ConnectionState{ServerName: "example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "example.com")
	})
	t.Run("does not mutate base", func(t *testing.T) {
		base := &tls.Config{ServerName: "example.com"}
		cfg := TLSConfig(base, f, zerolog.Nop())
		assert.Nil(t, base.VerifyConnection)
		assert.NotNil(t, cfg.VerifyConnection)
		assert.Equal(t, "example.com", cfg.ServerName)
	})
	t.Run("zero fingerprint is a no-op", func(t *testing.T) {
		cfg := TLSConfig(&tls.Config{}, Fingerprint{}, zerolog.Nop())
		assert.Nil(t, cfg.VerifyConnection)
	})
}

func TestTransport(t *testing.T) {
	f := FromCertificate(testCert)
	t.Run("nil base uses default transport", func(t *testing.T) {
		tr := Transport(nil, f, zerolog.Nop())
		require.NotNil(t, tr.TLSClientConfig)
		assert.NotNil(t, tr.TLSClientConfig.VerifyConnection)
	})
	t.Run("does not mutate base", func(t *testing.T) {
		base := http.DefaultTransport.(*http.Transport).Clone()
		tr := Transport(base, f, zerolog.Nop())
		if base.TLSClientConfig != nil {
			assert.Nil(t, base.TLSClientConfig.VerifyConnection)
		}
		assert.NotSame(t, base, tr)
		assert.NotNil(t, tr.TLSClientConfig.VerifyConnection)
	})
}

func withColons(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(s[i : i+2])
	}
	return b.String()
}

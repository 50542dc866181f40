// Package webhook verifies GitHub webhook delivery signatures.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

var (
	ErrMissingSignature   = errors.New("missing webhook signature")
	ErrMalformedSignature = errors.New("malformed webhook signature")
	ErrSignatureMismatch  = errors.New("webhook signature mismatch")
)

// VerifySignature checks the X-Hub-Signature-256 header value against the
// HMAC-SHA256 of the raw request body. The body must be the exact bytes
// received on the wire; re-serializing the JSON changes the digest.
func VerifySignature(body []byte, signature, secret string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		return ErrMalformedSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign computes the signature header value for a body. Used by tests and
// the manual trigger scripts.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

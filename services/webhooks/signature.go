package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

// ErrInvalidSignature is returned when a present signature does not verify
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Sign returns the hex HMAC-SHA256 of body under secret, with the sha256= prefix
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against body. The sha256= prefix is optional.
// A signature can never verify without a secret.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return ErrInvalidSignature
	}

	got := strings.TrimSpace(signature)
	if len(got) >= len(signaturePrefix) && strings.EqualFold(got[:len(signaturePrefix)], signaturePrefix) {
		got = got[len(signaturePrefix):]
	}

	provided, err := hex.DecodeString(strings.ToLower(got))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

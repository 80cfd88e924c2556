package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

const signatureHeader = "X-Push-Signature"

// validateSignature checks X-Push-Signature against HMAC-SHA256(body, secret).
// If secret is empty, validation is skipped (returns true).
func validateSignature(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	sig := r.Header.Get(signatureHeader)
	if sig == "" {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body)) // restore for downstream handlers

	return hmac.Equal([]byte(sig), []byte(Sign(body, secret)))
}

// Sign returns the hex HMAC-SHA256 a trigger must send in X-Push-Signature.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package pushagent

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64URL turns a URL-safe base64 VAPID key into raw bytes. The input
// is padded to a multiple of four and mapped onto the standard alphabet
// before decoding, so both padded and unpadded keys are accepted.
func DecodeBase64URL(s string) ([]byte, error) {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	return base64.StdEncoding.DecodeString(s)
}

// EncodeBase64URL is the inverse of DecodeBase64URL. Output is unpadded.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

package pushagent

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64URL(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", []byte{}},
		{"-_8", []byte{0xfb, 0xff}},
		{"-_8=", []byte{0xfb, 0xff}},
		{"AQID", []byte{1, 2, 3}},
		{"AQIDBA", []byte{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		got, err := DecodeBase64URL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := DecodeBase64URL("not base64!")
	assert.Error(t, err)
}

func TestBase64URLRoundTrip(t *testing.T) {
	for n := 0; n < 70; n++ {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)

		got, err := DecodeBase64URL(EncodeBase64URL(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
}

func TestBase64URLKeyRoundTrip(t *testing.T) {
	for _, in := range []string{testKey, testKey + "="} {
		raw, err := DecodeBase64URL(in)
		require.NoError(t, err)
		assert.Len(t, raw, 65)
		assert.Equal(t, testKey, EncodeBase64URL(raw))
	}
}

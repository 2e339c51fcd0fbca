package random

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLength(t *testing.T) {
	r := New()

	tok := r.Token(32)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestTokenIsUnique(t *testing.T) {
	r := New()
	assert.NotEqual(t, r.Token(16), r.Token(16))
}

func TestTokenNonPositive(t *testing.T) {
	assert.Empty(t, New().Token(0))
}

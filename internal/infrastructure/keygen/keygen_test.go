package keygen_test

import (
	"strings"
	"testing"

	"github.com/rezkam/hearth/internal/domain"
	"github.com/rezkam/hearth/internal/infrastructure/keygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_RoundTripsThroughParse(t *testing.T) {
	p, err := keygen.Generate(keygen.DefaultKeyType, keygen.DefaultService, keygen.DefaultVersion)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.FullKey, "sk-hearth-v1-"))
	assert.Len(t, p.ShortToken, 12)
	assert.Len(t, p.Secret, 43)

	parsed, err := keygen.Parse(p.FullKey)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

// Short tokens come from the hash of 256 random bits; they must not collide
// at the volume a single deployment issues keys.
func TestGenerate_UniqueShortTokens(t *testing.T) {
	const numKeys = 1000
	seen := make(map[string]bool, numKeys)

	for range numKeys {
		p, err := keygen.Generate("sk", "hearth", "v1")
		require.NoError(t, err)
		require.False(t, seen[p.ShortToken], "duplicate short token %s", p.ShortToken)
		seen[p.ShortToken] = true
	}
}

func TestGenerate_RejectsBadPrefix(t *testing.T) {
	_, err := keygen.Generate("s-k", "hearth", "v1")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKeyFormat)

	_, err = keygen.Generate("sk", "", "v1")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKeyFormat)
}

func TestParse_SecretMayContainHyphens(t *testing.T) {
	secret := "abc-def_ghi-" + strings.Repeat("x", 31)
	key := "sk-hearth-v1-a3f5d8c2b4e6-" + secret

	p, err := keygen.Parse(key)
	require.NoError(t, err)
	assert.Equal(t, secret, p.Secret)
	assert.Equal(t, "a3f5d8c2b4e6", p.ShortToken)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"too few parts":      "sk-hearth-v1",
		"empty type":         "-hearth-v1-a3f5d8c2b4e6-" + strings.Repeat("x", 43),
		"non-hex short":      "sk-hearth-v1-zzzzzzzzzzzz-" + strings.Repeat("x", 43),
		"short token length": "sk-hearth-v1-a3f5-" + strings.Repeat("x", 43),
		"secret length":      "sk-hearth-v1-a3f5d8c2b4e6-short",
	}
	for name, key := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := keygen.Parse(key)
			assert.ErrorIs(t, err, domain.ErrInvalidAPIKeyFormat)
		})
	}
}

func TestHashSecret(t *testing.T) {
	h := keygen.HashSecret("secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, keygen.HashSecret("secret"))
	assert.NotEqual(t, h, keygen.HashSecret("secret2"))
}

func TestDisplayAndMask(t *testing.T) {
	p, err := keygen.Generate("sk", "hearth", "v1")
	require.NoError(t, err)

	assert.Equal(t, "sk-hearth-v1-"+p.ShortToken+"-****", p.Display())
	assert.Equal(t, "sk-***", keygen.Mask(p.FullKey))
	assert.Equal(t, "***", keygen.Mask("garbage"))
}

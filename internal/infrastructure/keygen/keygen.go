// Package keygen generates and parses household API keys.
//
// A key has the form {type}-{service}-{version}-{short}-{secret}, for example
//
//	sk-hearth-v1-a3f5d8c2b4e6-8h3k2jf9s7d6f5g4h3j2k1m0n9p8q7r6s5t4u3v2w1x
//
// The short token is the first 6 bytes of the BLAKE2b-256 hash of the secret,
// hex-encoded, and is used for lookup. Only the hash of the secret is stored.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rezkam/hearth/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// Defaults for keys issued by hearth.
const (
	DefaultKeyType = "sk"
	DefaultService = "hearth"
	DefaultVersion = "v1"
)

const (
	secretBytes    = 32
	shortTokenLen  = 12 // hex chars of the hash prefix
	secretEncodedLen = 43 // base64url of secretBytes, unpadded
)

// Parts represents the components of an API key.
type Parts struct {
	KeyType    string
	Service    string
	Version    string
	ShortToken string
	Secret     string
	FullKey    string
}

// Generate creates a new API key with the given prefix fields.
func Generate(keyType, service, version string) (*Parts, error) {
	for _, field := range []string{keyType, service, version} {
		if field == "" || strings.Contains(field, "-") {
			return nil, fmt.Errorf("%w: prefix field %q", domain.ErrInvalidAPIKeyFormat, field)
		}
	}

	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)
	short := shortToken(secret)

	return &Parts{
		KeyType:    keyType,
		Service:    service,
		Version:    version,
		ShortToken: short,
		Secret:     secret,
		FullKey:    strings.Join([]string{keyType, service, version, short, secret}, "-"),
	}, nil
}

// Parse splits an API key into its components and checks their shape.
// The secret is base64url and may itself contain hyphens.
func Parse(apiKey string) (*Parts, error) {
	parts := strings.SplitN(apiKey, "-", 5)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 parts, got %d", domain.ErrInvalidAPIKeyFormat, len(parts))
	}
	for _, p := range parts[:3] {
		if p == "" {
			return nil, fmt.Errorf("%w: empty prefix field", domain.ErrInvalidAPIKeyFormat)
		}
	}
	if _, err := hex.DecodeString(parts[3]); err != nil || len(parts[3]) != shortTokenLen {
		return nil, fmt.Errorf("%w: malformed short token", domain.ErrInvalidAPIKeyFormat)
	}
	if len(parts[4]) != secretEncodedLen {
		return nil, fmt.Errorf("%w: malformed secret", domain.ErrInvalidAPIKeyFormat)
	}

	return &Parts{
		KeyType:    parts[0],
		Service:    parts[1],
		Version:    parts[2],
		ShortToken: parts[3],
		Secret:     parts[4],
		FullKey:    apiKey,
	}, nil
}

// Display returns a safe-to-show version of the key, e.g. "sk-hearth-v1-a3f5d8c2b4e6-****".
func (p *Parts) Display() string {
	return fmt.Sprintf("%s-%s-%s-%s-****", p.KeyType, p.Service, p.Version, p.ShortToken)
}

// HashSecret computes the BLAKE2b-256 hash of the secret, hex-encoded.
func HashSecret(secret string) string {
	hash := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

// Mask returns a safe-to-log version of an API key showing only its type.
func Mask(apiKey string) string {
	p, err := Parse(apiKey)
	if err != nil {
		return "***"
	}
	return p.KeyType + "-***"
}

func shortToken(secret string) string {
	hash := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:shortTokenLen/2])
}

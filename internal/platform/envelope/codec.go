// Package envelope provides per-message symmetric encryption for payloads at
// rest. Each encrypted value is a CipherEnvelope: a fresh random nonce
// concatenated with the ChaCha20 ciphertext, hex-encoded into one string.
//
// The cipher is an unauthenticated stream cipher: no integrity tag is
// computed, so corruption changes the plaintext silently instead of raising
// an error. A single static process-lifetime key is assumed; there is no
// rotation. Both are known limitations carried over from the stored format.
package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Codec encrypts and decrypts single payloads under one static key.
type Codec struct {
	key      []byte
	nonceLen int
}

// New creates a Codec. The key must be 32 bytes; nonceLen must be a nonce
// size ChaCha20 accepts (12 for the IETF variant, 24 for XChaCha20).
func New(key []byte, nonceLen int) (*Codec, error) {
	if len(key) != chacha20.KeySize {
		return nil, fmt.Errorf("envelope: key must be %d bytes, got %d", chacha20.KeySize, len(key))
	}
	if nonceLen != chacha20.NonceSize && nonceLen != chacha20.NonceSizeX {
		return nil, fmt.Errorf("envelope: nonce length must be %d or %d, got %d",
			chacha20.NonceSize, chacha20.NonceSizeX, nonceLen)
	}
	return &Codec{key: key, nonceLen: nonceLen}, nil
}

// NonceLen returns the configured nonce length in bytes.
func (c *Codec) NonceLen() int { return c.nonceLen }

// Encrypt seals plaintext under a fresh random nonce and returns the
// hex-encoded envelope. The nonce comes from crypto/rand on every call;
// nonce reuse under the static key would break confidentiality.
func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("envelope: generate nonce: %w", err)
	}

	stream, err := chacha20.NewUnauthenticatedCipher(c.key, nonce)
	if err != nil {
		return "", fmt.Errorf("envelope: init cipher: %w", err)
	}

	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)

	return hex.EncodeToString(nonce) + hex.EncodeToString(ciphertext), nil
}

// Decrypt splits the first 2*nonceLen hex characters as the nonce and
// decrypts the remainder. It fails if the envelope is shorter than the nonce,
// is not valid hex, or the cipher rejects the key/nonce pair.
func (c *Codec) Decrypt(env string) ([]byte, error) {
	if len(env) < c.nonceLen*2 {
		return nil, fmt.Errorf("envelope: ciphertext shorter than nonce")
	}

	nonce, err := hex.DecodeString(env[:c.nonceLen*2])
	if err != nil {
		return nil, fmt.Errorf("envelope: decode nonce: %w", err)
	}
	ciphertext, err := hex.DecodeString(env[c.nonceLen*2:])
	if err != nil {
		return nil, fmt.Errorf("envelope: decode ciphertext: %w", err)
	}

	stream, err := chacha20.NewUnauthenticatedCipher(c.key, nonce)
	if err != nil {
		return nil, fmt.Errorf("envelope: init cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	stream.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

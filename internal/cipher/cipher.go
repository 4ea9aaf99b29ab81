package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the required AES-256 key size in bytes.
	KeySize = 32
	// nonceSize is the AES-GCM nonce size in bytes.
	nonceSize = 12
	// formatVersion is the current ciphertext format version.
	formatVersion byte = 1
)

const headerSize = 1 + nonceSize // version + nonce

var (
	// ErrInvalidKey indicates a key of the wrong size.
	ErrInvalidKey = errors.New("cipher: key must be 32 bytes")
	// ErrMalformed indicates truncated or undecodable ciphertext.
	ErrMalformed = errors.New("cipher: malformed ciphertext")
	// ErrDecrypt indicates an authentication failure: tampered data or a
	// key other than the one that produced the ciphertext.
	ErrDecrypt = errors.New("cipher: decryption failed")
)

// Cipher performs authenticated symmetric encryption of individual text
// spans. Every call to Encrypt draws a fresh random nonce, so spans
// encrypted independently never share one.
type Cipher struct {
	aead gocipher.AEAD
}

// New creates a Cipher from a 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt encrypts a single span and returns it base64-encoded.
// Wire format before encoding: [version (1 byte)][nonce (12 bytes)][sealed].
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cipher: read nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, headerSize+len(sealed))
	out = append(out, formatVersion)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It returns ErrMalformed for undecodable or
// truncated input and ErrDecrypt when authentication fails.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) < headerSize {
		return "", fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	if data[0] != formatVersion {
		return "", fmt.Errorf("%w: unsupported version %d", ErrMalformed, data[0])
	}

	nonce, sealed := data[1:headerSize], data[headerSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrInvalidKey       = errors.New("invalid cipher key")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

const keySize = 32 // AES-256

// FieldCipher encrypts and decrypts individual account attributes.
//
// The construction is deliberately deterministic: the GCM nonce is synthesized
// as HMAC-SHA256(nonceKey, plaintext) truncated to the nonce size, so equal
// plaintexts always produce equal ciphertexts. The storage procedures rely on
// ciphertext equality for uniqueness checks on email, mobile number and plate
// number, and search re-derives ciphertext for exact mobile-number match;
// both silently break under a randomized scheme.
type FieldCipher struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// NewFieldCipher builds a cipher from a 256-bit key. The nonce key is derived
// from the master key so a single secret configures the whole cipher.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	nonceKey := sha256.Sum256(append([]byte("field-nonce:"), key...))

	return &FieldCipher{
		aead:     aead,
		nonceKey: nonceKey[:],
	}, nil
}

// Encrypt returns the base64 ciphertext of plaintext. The empty string maps
// to the empty string: absent fields (NULL columns) pass through untouched.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := c.syntheticNonce(plaintext)
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt is the inverse of Encrypt for any value Encrypt produced.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext encoding", ErrDecryptionFailed)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

func (c *FieldCipher) syntheticNonce(plaintext string) []byte {
	mac := hmac.New(sha256.New, c.nonceKey)
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)[:c.aead.NonceSize()]
}

package crypto

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	sum := sha256.Sum256([]byte("field-cipher-test-key"))
	return sum[:]
}

func TestNewFieldCipher_RejectsBadKeyLength(t *testing.T) {
	_, err := NewFieldCipher([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFieldCipher(bytes.Repeat([]byte{0x01}, 31))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFieldCipher(testKey())
	require.NoError(t, err)
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	c, err := NewFieldCipher(testKey())
	require.NoError(t, err)

	plaintexts := []string{
		"Juan Dela Cruz",
		"09171234567",
		"123 Katipunan Ave, Quezon City",
		"driver@example.com",
		"ABC-1234",
		"ña & 日本語 ✓",
	}

	for _, pt := range plaintexts {
		ct, err := c.Encrypt(pt)
		require.NoError(t, err)
		assert.NotEqual(t, pt, ct)

		got, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestFieldCipher_Deterministic(t *testing.T) {
	c, err := NewFieldCipher(testKey())
	require.NoError(t, err)

	// Equal plaintexts must yield equal ciphertexts: the storage layer
	// compares ciphertext for uniqueness and exact-match search.
	ct1, err := c.Encrypt("09171234567")
	require.NoError(t, err)
	ct2, err := c.Encrypt("09171234567")
	require.NoError(t, err)
	assert.Equal(t, ct1, ct2)

	ct3, err := c.Encrypt("09171234568")
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct3)
}

func TestFieldCipher_EmptyPassesThrough(t *testing.T) {
	c, err := NewFieldCipher(testKey())
	require.NoError(t, err)

	ct, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", ct)

	pt, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", pt)
}

func TestFieldCipher_DecryptRejectsGarbage(t *testing.T) {
	c, err := NewFieldCipher(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// Valid base64 but shorter than a nonce.
	_, err = c.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// Tampered ciphertext fails authentication.
	ct, err := c.Encrypt("tamper me")
	require.NoError(t, err)
	tampered := "A" + ct[1:]
	if tampered == ct {
		tampered = "B" + ct[1:]
	}
	_, err = c.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestFieldCipher_KeysAreIsolated(t *testing.T) {
	c1, err := NewFieldCipher(testKey())
	require.NoError(t, err)

	otherKey := sha256.Sum256([]byte("another-key"))
	c2, err := NewFieldCipher(otherKey[:])
	require.NoError(t, err)

	ct, err := c1.Encrypt("cross-key value")
	require.NoError(t, err)

	_, err = c2.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

package password

import (
	"crypto/rand"
	"math/big"
)

// Length of every generated onboarding password.
const Length = 8

// charset deliberately omits visually similar glyphs (0/O/o, 1/l/I/i) so the
// credential survives being read off an email and typed on a phone.
const charset = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate produces a random onboarding password. Usable, not advertised as
// cryptographically strong; accounts are expected to rotate it on first login.
func Generate() string {
	out := make([]byte, Length)
	max := big.NewInt(int64(len(charset)))

	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// nothing sensible to do but stop.
			panic("password: system random source unavailable: " + err.Error())
		}
		out[i] = charset[n.Int64()]
	}

	return string(out)
}

package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// tokenChars is the alphabet for opaque random tokens such as CSRF secrets.
const tokenChars = uppercaseChars + lowercaseChars + numberChars

var ErrTokenLength = errors.New("token length must be positive")

// RandomToken returns an n-character alphanumeric string from crypto/rand.
func RandomToken(n int) (string, error) {
	if n <= 0 {
		return "", ErrTokenLength
	}

	result := make([]byte, n)
	for i := range result {
		ch, err := randChar(tokenChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

package services

import (
	"crypto/rand"
	"math/big"
)

// URL-safe alphabet, 64 characters.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	defaultCodeLength  = 3
	fallbackCodeLength = 4
	maxCodeAttempts    = 40
)

// generateShortCode draws a uniform random code of the given length.
// It carries no knowledge of existing codes; uniqueness is the caller's
// problem (probe + storage constraint).
func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b), nil
}

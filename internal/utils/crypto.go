package utils

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet omits the look-alikes 0, O, 1 and I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode returns n characters drawn uniformly from codeAlphabet.
func RandomCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}

// MustRandomCode is RandomCode for callers that cannot recover from a broken
// entropy source.
func MustRandomCode(n int) string {
	code, err := RandomCode(n)
	if err != nil {
		panic("failed to generate random code: " + err.Error())
	}
	return code
}

package utils

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

var ten = big.NewInt(10)

// GenerateVerificationCode returns a uniformly random numeric code of the
// given length drawn from crypto/rand.
func GenerateVerificationCode(length int) (string, error) {
	return generateCode(rand.Reader, length)
}

func generateCode(r io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(r, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

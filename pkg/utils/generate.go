package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// GenerateConfirmationCode returns a numeric code drawn from crypto/rand.
func GenerateConfirmationCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	var sb strings.Builder
	sb.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}

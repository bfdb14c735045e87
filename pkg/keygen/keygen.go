package keygen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const alphaNumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecret returns a random alphanumeric signing secret of the given length
func GenerateSecret(length int) (string, error) {
	return randomString(length, alphaNumeric)
}

// CorrelationID returns a fresh request identifier (UUID v4)
func CorrelationID() string {
	return uuid.New().String()
}

// randomString generates a random string of given length from the given charset
func randomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}

package hub

import (
	"crypto/rand"
	"math/big"
)

const (
	idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 4
)

// GenerateCode returns a short uppercase alphanumeric session id.
func GenerateCode() (string, error) {
	code := make([]byte, idLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		if err != nil {
			return "", err
		}
		code[i] = idCharset[num.Int64()]
	}
	return string(code), nil
}

package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford-style alphabet without I, L, O, U to keep codes readable at the gate.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const confirmationCodeLength = 10

// NewConfirmationCode returns an opaque code printed on the entry barcode, e.g. "PK-7Q2M9XH4TA".
func NewConfirmationCode() (string, error) {
	b := make([]byte, confirmationCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	var sb strings.Builder
	sb.Grow(confirmationCodeLength + 3)
	sb.WriteString("PK-")
	for _, c := range b {
		sb.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	CodeSaltSize   = 16
	CodeDigestSize = 32

	// argon2id parameters for the short-code digest path; deliberately
	// lighter than interactive password hashing since every Validate pays
	// this cost inside the store's critical section.
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

func NewCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	code := b.String()
	if len(code) != digits {
		return "", fmt.Errorf("invalid code generation length")
	}
	return code, nil
}

func NewCodeSalt() ([CodeSaltSize]byte, error) {
	var salt [CodeSaltSize]byte
	_, err := rand.Read(salt[:])
	return salt, err
}

func DigestSHA256(code string) [CodeDigestSize]byte {
	return sha256.Sum256([]byte(code))
}

func DigestArgon2(code string, salt [CodeSaltSize]byte) [CodeDigestSize]byte {
	var out [CodeDigestSize]byte
	copy(out[:], argon2.IDKey([]byte(code), salt[:], argonTime, argonMemory, argonThreads, CodeDigestSize))
	return out
}

func DigestEqual(a, b [CodeDigestSize]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

func IsNumericString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"user-service/internal/domain"
)

const (
	hashAlgorithmTag = "PBKDF2"

	DefaultIterations = 100_000
	DefaultSaltSize   = 16
	DefaultKeySize    = 32

	// MaxIterations bounds the work a stored hash may demand on verify.
	MaxIterations = 10 * DefaultIterations

	minGeneratedPasswordLength = 8

	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*_-"
	allChars    = lowerChars + upperChars + digitChars + symbolChars
)

// PasswordHasher hashes, verifies and generates passwords.
type PasswordHasher interface {
	HashPassword(plaintext string) (string, error)
	VerifyPassword(plaintext, encoded string) bool
	GenerateRandomPassword(length int) (string, error)
}

// HasherConfig tunes the key derivation. Zero values fall back to the defaults.
type HasherConfig struct {
	Iterations int
	SaltSize   int
	KeySize    int
}

type pbkdf2Hasher struct {
	iterations int
	saltSize   int
	keySize    int
}

func NewPasswordHasher(cfg HasherConfig) PasswordHasher {
	h := &pbkdf2Hasher{
		iterations: cfg.Iterations,
		saltSize:   cfg.SaltSize,
		keySize:    cfg.KeySize,
	}
	if h.iterations <= 0 {
		h.iterations = DefaultIterations
	}
	if h.saltSize <= 0 {
		h.saltSize = DefaultSaltSize
	}
	if h.keySize <= 0 {
		h.keySize = DefaultKeySize
	}
	return h
}

// HashPassword returns PBKDF2|<iterations>|<base64 salt>|<base64 key>.
func (h *pbkdf2Hasher) HashPassword(plaintext string) (string, error) {
	salt := make([]byte, h.saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", domain.Wrap(domain.ErrRandomSource, err)
	}
	key := pbkdf2.Key([]byte(plaintext), salt, h.iterations, h.keySize, sha256.New)

	return strings.Join([]string{
		hashAlgorithmTag,
		strconv.Itoa(h.iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, "|"), nil
}

// VerifyPassword never fails loudly: any malformed encoding is a mismatch.
func (h *pbkdf2Hasher) VerifyPassword(plaintext, encoded string) bool {
	parts := strings.Split(encoded, "|")
	if len(parts) != 4 || parts[0] != hashAlgorithmTag {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > max(MaxIterations, h.iterations) {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}

	actual := pbkdf2.Key([]byte(plaintext), salt, iterations, len(expected), sha256.New)
	if len(actual) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// GenerateRandomPassword returns at least eight characters with one of each
// class, shuffled with the secure source.
func (h *pbkdf2Hasher) GenerateRandomPassword(length int) (string, error) {
	if length < minGeneratedPasswordLength {
		length = minGeneratedPasswordLength
	}

	out := make([]byte, 0, length)
	for _, class := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(class string) (byte, error) {
	i, err := randInt(len(class))
	if err != nil {
		return 0, err
	}
	return class[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, domain.Wrap(domain.ErrRandomSource, fmt.Errorf("draw random index: %w", err))
	}
	return int(v.Int64()), nil
}

package service

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func newTestHasher() PasswordHasher {
	return NewPasswordHasher(HasherConfig{Iterations: 1000})
}

func TestHashPassword_Format(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	encoded, err := h.HashPassword("S3cret!pass")
	require.NoError(t, err)

	parts := strings.Split(encoded, "|")
	require.Len(t, parts, 4)
	assert.Equal(t, "PBKDF2", parts[0])
	assert.Equal(t, "1000", parts[1])

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	assert.Len(t, salt, DefaultSaltSize)

	key, err := base64.StdEncoding.DecodeString(parts[3])
	require.NoError(t, err)
	assert.Len(t, key, DefaultKeySize)
}

func TestHashPassword_FreshSaltEachTime(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	a, err := h.HashPassword("same")
	require.NoError(t, err)
	b, err := h.HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDefaultsApply(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(HasherConfig{}).(*pbkdf2Hasher)
	assert.Equal(t, DefaultIterations, h.iterations)
	assert.Equal(t, DefaultSaltSize, h.saltSize)
	assert.Equal(t, DefaultKeySize, h.keySize)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	for _, p := range []string{"S3cret!pass", "", "contraseña-ñ", strings.Repeat("x", 200)} {
		encoded, err := h.HashPassword(p)
		require.NoError(t, err)
		assert.True(t, h.VerifyPassword(p, encoded), "password %q", p)
		assert.False(t, h.VerifyPassword(p+"x", encoded), "password %q", p)
	}
}

func TestVerifyPassword_UsesStoredIterations(t *testing.T) {
	t.Parallel()

	old := NewPasswordHasher(HasherConfig{Iterations: 500})
	encoded, err := old.HashPassword("Legacy#1")
	require.NoError(t, err)

	current := newTestHasher()
	assert.True(t, current.VerifyPassword("Legacy#1", encoded))
}

func TestVerifyPassword_KnownVector(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")
	key := pbkdf2.Key([]byte("Pa$$w0rd"), salt, 100000, 32, sha256.New)
	encoded := "PBKDF2|100000|" + base64.StdEncoding.EncodeToString(salt) + "|" + base64.StdEncoding.EncodeToString(key)

	h := newTestHasher()
	assert.True(t, h.VerifyPassword("Pa$$w0rd", encoded))
	assert.False(t, h.VerifyPassword("Pa$$w0rD", encoded))
}

func TestVerifyPassword_MalformedFailsClosed(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	valid, err := h.HashPassword("pw")
	require.NoError(t, err)
	parts := strings.Split(valid, "|")

	malformed := []string{
		"",
		"|||",
		"not-a-hash",
		"$2a$10$abcdefghijklmnopqrstuv",
		"PBKDF2|100000|salt",
		"PBKDF2|100000|a|b|c",
		"SHA1|" + parts[1] + "|" + parts[2] + "|" + parts[3],
		"pbkdf2|" + parts[1] + "|" + parts[2] + "|" + parts[3],
		"PBKDF2|abc|" + parts[2] + "|" + parts[3],
		"PBKDF2|-5|" + parts[2] + "|" + parts[3],
		"PBKDF2|0|" + parts[2] + "|" + parts[3],
		"PBKDF2|" + parts[1] + "|%%%|" + parts[3],
		"PBKDF2|" + parts[1] + "|" + parts[2] + "|%%%",
		"PBKDF2|" + parts[1] + "|" + parts[2] + "|",
		"PBKDF2|99999999999999999999|" + parts[2] + "|" + parts[3],
		"PBKDF2|20000000|" + parts[2] + "|" + parts[3],
		"PBKDF2|" + strconv.Itoa(MaxIterations+1) + "|" + parts[2] + "|" + parts[3],
	}
	for _, m := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, h.VerifyPassword("pw", m), "encoded %q", m)
		})
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	for _, n := range []int{-1, 0, 3, 8, 9, 12, 64} {
		p, err := h.GenerateRandomPassword(n)
		require.NoError(t, err)

		want := n
		if want < 8 {
			want = 8
		}
		assert.Len(t, p, want)
		assertHasEveryClass(t, p)
		for _, r := range p {
			assert.True(t, strings.ContainsRune(allChars, r), "unexpected rune %q", r)
		}
	}
}

func TestGenerateRandomPassword_Varies(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		p, err := h.GenerateRandomPassword(12)
		require.NoError(t, err)
		seen[p] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}

func assertHasEveryClass(t *testing.T, p string) {
	t.Helper()

	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(symbolChars, r):
			symbol = true
		}
	}
	assert.True(t, lower && upper && digit && symbol, "password %q misses a class", p)
}

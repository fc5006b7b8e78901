package service

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9]{1,20}$`)

func TestGenerateBase(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator
	cases := []struct {
		name                    string
		first, last, secondLast string
		want                    string
	}{
		{"accents", "Ana", "García", "López", "agarcial"},
		{"no second surname", "Juan", "Pérez", "", "jperez"},
		{"enye", "Íñigo", "Muñoz", "Ñandú", "imunozn"},
		{"spaces and symbols", " maría ", "de la Cruz-Díaz", "o'brien", "mdelacruzdiazo"},
		{"digits kept", "R2", "D2", "", "rd2"},
		{"truncated", "Ana", "Abcdefghijklmnopqrstuvwxyz", "Z", "aabcdefghijklmnopqrs"},
		{"fallback", "", "!!!", "", "user"},
		{"non latin", "Жанна", "Иванова", "", "user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := g.GenerateBase(tc.first, tc.last, tc.secondLast)
			assert.Equal(t, tc.want, got)
			assert.Regexp(t, handlePattern, got)
		})
	}
}

func TestGenerateBase_Deterministic(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator
	assert.Equal(t, g.GenerateBase("Ana", "García", "López"), g.GenerateBase("Ana", "García", "López"))
}

func TestEnsureUnique(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator

	assert.Equal(t, "agarcial", g.EnsureUnique("agarcial", nil))
	assert.Equal(t, "agarcial1", g.EnsureUnique("agarcial", []string{"agarcial"}))
	assert.Equal(t, "agarcial1", g.EnsureUnique("agarcial", []string{"AGarciaL"}))
	assert.Equal(t, "agarcial3", g.EnsureUnique("agarcial", []string{"agarcial", "agarcial1", "AGARCIAL2"}))
}

func TestEnsureUnique_TruncatesHeadAtMaxLength(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator
	base := strings.Repeat("a", MaxUsernameLength)

	existing := []string{base}
	for i := 0; i < 12; i++ {
		got := g.EnsureUnique(base, existing)
		require.LessOrEqual(t, len(got), MaxUsernameLength)
		require.NotContains(t, existing, got)
		existing = append(existing, got)
	}
	assert.Equal(t, strings.Repeat("a", 19)+"1", existing[1])
	assert.Equal(t, strings.Repeat("a", 18)+"10", existing[10])
}

func TestEnsureUnique_CapsLongBase(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator
	long := strings.Repeat("b", 25)

	assert.Equal(t, strings.Repeat("b", MaxUsernameLength), g.EnsureUnique(long, nil))
	assert.Equal(t, strings.Repeat("b", 19)+"1", g.EnsureUnique(long, []string{strings.Repeat("B", MaxUsernameLength)}))
}

func TestEnsureUnique_NeverCollides(t *testing.T) {
	t.Parallel()

	var g UsernameGenerator
	existing := []string{"user"}
	for i := 0; i < 200; i++ {
		got := g.EnsureUnique("user", existing)
		for _, e := range existing {
			require.False(t, strings.EqualFold(e, got), "collision on %q", got)
		}
		require.LessOrEqual(t, len(got), MaxUsernameLength)
		existing = append(existing, got)
	}
}

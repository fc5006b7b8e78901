package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/internal/domain"
)

func validUser() *domain.User {
	return domain.NewUser(domain.NewUserParams{
		FirstName:      "Ana",
		LastFirstName:  "García",
		LastSecondName: "López",
		Mail:           "ana@example.com",
		Phone:          "70012345",
		CI:             "E1234567",
		Role:           domain.RoleCashier,
	})
}

func TestRecordValidator_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewRecordValidator().Validate(validUser()))

	u := validUser()
	u.LastSecondName = nil
	u.CI = "1234567a"
	require.NoError(t, NewRecordValidator().Validate(u))
}

func TestRecordValidator_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	u := validUser()
	u.FirstName = "A"
	u.LastFirstName = "Garc1a"
	u.Mail = "not-an-email"
	u.CI = "12"
	u.Phone = "12ab"
	u.Role = "Janitor"

	err := NewRecordValidator().Validate(u)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	for _, field := range []string{"first_name", "last_first_name", "mail", "ci", "phone", "role"} {
		assert.Contains(t, de.Fields, field)
	}
	assert.NotContains(t, de.Fields, "last_second_name")
}

func TestRecordValidator_Lengths(t *testing.T) {
	t.Parallel()

	u := validUser()
	long := strings.Repeat("a", 51)
	u.LastSecondName = &long
	u.Mail = strings.Repeat("a", 95) + "@example.com"
	u.Phone = "12345678901"

	var de *domain.Error
	require.ErrorAs(t, NewRecordValidator().Validate(u), &de)
	assert.Equal(t, []string{"second last name must be between 2 and 50 characters"}, de.Fields["last_second_name"])
	assert.Equal(t, []string{"mail must not exceed 100 characters"}, de.Fields["mail"])
	assert.Equal(t, []string{"phone must have between 6 and 10 digits"}, de.Fields["phone"])
}

package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"user-service/internal/domain"
	"user-service/internal/repository"
)

// PasswordPolicy holds the rules a new password must satisfy.
type PasswordPolicy struct {
	MinLength int
	// RequireComplexity demands a digit, an uppercase letter, a lowercase
	// letter and a symbol.
	RequireComplexity bool
}

// DefaultPasswordPolicy is eight characters with complexity enforced.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, RequireComplexity: true}
}

// Check validates the shape of a candidate password.
func (p PasswordPolicy) Check(password string) error {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	if strings.TrimSpace(password) == "" || len([]rune(password)) < minLen {
		return domain.ErrPasswordTooShort
	}
	if !p.RequireComplexity {
		return nil
	}

	var digit, upper, lower, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	switch {
	case !digit:
		return domain.ErrPasswordNoDigit
	case !upper:
		return domain.ErrPasswordNoUpper
	case !lower:
		return domain.ErrPasswordNoLower
	case !symbol:
		return domain.ErrPasswordNoSymbol
	}
	return nil
}

// PasswordChanger runs the change-password workflow against the repository.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

type passwordChanger struct {
	users  repository.UserRepository
	hasher PasswordHasher
	policy PasswordPolicy
	now    func() time.Time
}

func NewPasswordChanger(users repository.UserRepository, hasher PasswordHasher, policy PasswordPolicy, now func() time.Time) PasswordChanger {
	if now == nil {
		now = time.Now
	}
	return &passwordChanger{users: users, hasher: hasher, policy: policy, now: now}
}

func (c *passwordChanger) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !c.hasher.VerifyPassword(currentPassword, user.PasswordHash) {
		return domain.ErrCurrentPasswordMismatch
	}
	if err := c.policy.Check(newPassword); err != nil {
		return err
	}
	if c.hasher.VerifyPassword(newPassword, user.PasswordHash) {
		return domain.ErrPasswordUnchanged
	}

	hash, err := c.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	now := c.now().UTC()
	user.PasswordHash = hash
	user.HasChangedPassword = true
	user.PasswordVersion++
	user.LastPasswordChangedAt = &now
	user.UpdatedAt = now
	user.UpdatedBy = user.ID

	return c.users.Update(ctx, user)
}

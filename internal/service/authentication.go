package service

import (
	"context"
	"strings"

	"user-service/internal/domain"
	"user-service/internal/repository"
)

// Authenticator checks a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type authenticator struct {
	users  repository.UserRepository
	hasher PasswordHasher
	// decoy is verified when no user matches so both failure paths cost a derivation.
	decoy string
}

func NewAuthenticator(users repository.UserRepository, hasher PasswordHasher) (Authenticator, error) {
	decoy, err := hasher.HashPassword("decoy-password")
	if err != nil {
		return nil, err
	}
	return &authenticator{users: users, hasher: hasher, decoy: decoy}, nil
}

// Authenticate returns domain.ErrInvalidCredentials for an unknown, deleted or
// mismatching user alike.
func (a *authenticator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	all, err := a.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var match *domain.User
	for i := range all {
		if !all[i].IsDeleted && strings.EqualFold(all[i].Username, username) {
			match = &all[i]
			break
		}
	}
	if match == nil || username == "" {
		a.hasher.VerifyPassword(password, a.decoy)
		return nil, domain.ErrInvalidCredentials
	}
	if !a.hasher.VerifyPassword(password, match.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return match, nil
}

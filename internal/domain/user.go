package domain

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleCashier       Role = "Cashier"
	RoleStockkeeper   Role = "Stockkeeper"
)

// Roles lists every known role.
var Roles = []Role{RoleAdministrator, RoleCashier, RoleStockkeeper}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// User is the stored user record, credential fields included.
type User struct {
	ID             int64
	Username       string
	FirstName      string
	LastFirstName  string
	LastSecondName *string
	Mail           string
	Phone          string
	CI             string
	Role           Role

	PasswordHash          string
	PasswordVersion       int
	HasChangedPassword    bool
	LastPasswordChangedAt *time.Time

	IsDeleted bool
	CreatedBy int64
	UpdatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserParams carries everything needed to build a user at registration.
type NewUserParams struct {
	FirstName      string
	LastFirstName  string
	LastSecondName string
	Mail           string
	Phone          string
	CI             string
	Role           Role
	Username       string
	PasswordHash   string
	ActorID        int64
	Now            time.Time
}

// NewUser builds a fresh record ready to be persisted. Inputs are trimmed and
// an empty second surname becomes nil.
func NewUser(p NewUserParams) *User {
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var second *string
	if s := strings.TrimSpace(p.LastSecondName); s != "" {
		second = &s
	}
	return &User{
		Username:        p.Username,
		FirstName:       strings.TrimSpace(p.FirstName),
		LastFirstName:   strings.TrimSpace(p.LastFirstName),
		LastSecondName:  second,
		Mail:            strings.TrimSpace(p.Mail),
		Phone:           strings.TrimSpace(p.Phone),
		CI:              strings.TrimSpace(p.CI),
		Role:            p.Role,
		PasswordHash:    p.PasswordHash,
		PasswordVersion: 1,
		CreatedBy:       p.ActorID,
		UpdatedBy:       p.ActorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SecondSurname returns the second surname or "".
func (u *User) SecondSurname() string {
	if u == nil || u.LastSecondName == nil {
		return ""
	}
	return *u.LastSecondName
}

package service

import (
	"strings"

	"user-service/internal/domain"
)

// Actions checked by the authorizer.
const (
	ActionManageUsers = "ManageUsers"
	ActionSell        = "Sell"
	ActionStore       = "Store"
	ActionViewOwnData = "ViewOwnData"
)

var roleActions = map[domain.Role][]string{
	domain.RoleCashier:     {ActionSell, ActionViewOwnData},
	domain.RoleStockkeeper: {ActionStore, ActionViewOwnData},
}

// Authorizer decides whether a user may perform a named action.
type Authorizer interface {
	CanPerformAction(user *domain.User, action string) bool
}

type allowListAuthorizer struct{}

func NewAuthorizer() Authorizer {
	return allowListAuthorizer{}
}

// CanPerformAction allows administrators everything; other roles get their
// fixed allow-list, matched case-insensitively.
func (allowListAuthorizer) CanPerformAction(user *domain.User, action string) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdministrator {
		return true
	}
	for _, allowed := range roleActions[user.Role] {
		if strings.EqualFold(allowed, action) {
			return true
		}
	}
	return false
}

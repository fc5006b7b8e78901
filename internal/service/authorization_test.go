package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"user-service/internal/domain"
)

func TestCanPerformAction(t *testing.T) {
	t.Parallel()

	authz := NewAuthorizer()
	admin := &domain.User{Role: domain.RoleAdministrator}
	cashier := &domain.User{Role: domain.RoleCashier}
	keeper := &domain.User{Role: domain.RoleStockkeeper}
	unknown := &domain.User{Role: "Auditor"}

	for _, action := range []string{ActionManageUsers, ActionSell, ActionStore, ActionViewOwnData, "Anything"} {
		assert.True(t, authz.CanPerformAction(admin, action), action)
		assert.False(t, authz.CanPerformAction(unknown, action), action)
	}

	assert.True(t, authz.CanPerformAction(cashier, "Sell"))
	assert.True(t, authz.CanPerformAction(cashier, "sell"))
	assert.True(t, authz.CanPerformAction(cashier, "VIEWOWNDATA"))
	assert.False(t, authz.CanPerformAction(cashier, "Store"))
	assert.False(t, authz.CanPerformAction(cashier, ActionManageUsers))

	assert.True(t, authz.CanPerformAction(keeper, "store"))
	assert.True(t, authz.CanPerformAction(keeper, ActionViewOwnData))
	assert.False(t, authz.CanPerformAction(keeper, "Sell"))

	assert.False(t, authz.CanPerformAction(nil, ActionSell))
}

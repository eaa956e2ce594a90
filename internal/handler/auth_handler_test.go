package handler

import (
	"testing"

	"insight-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestOldestMembershipIsDeterministic(t *testing.T) {
	memberships := []model.User{
		{TenantID: 9, Email: "owner@example.com"},
		{TenantID: 2, Email: "owner@example.com"},
		{TenantID: 5, Email: "owner@example.com"},
	}
	memberships[0].ID = 30
	memberships[1].ID = 7
	memberships[2].ID = 12

	// A login without business_name must land in the same tenant no
	// matter what order the rows come back in.
	picked := oldestMembership(memberships)
	assert.Equal(t, uint(7), picked.ID)
	assert.Equal(t, uint(2), picked.TenantID)

	reversed := []model.User{memberships[2], memberships[0], memberships[1]}
	assert.Equal(t, picked, oldestMembership(reversed))
}

func TestOldestMembershipSingleRow(t *testing.T) {
	only := model.User{TenantID: 3, Email: "owner@example.com"}
	only.ID = 4

	assert.Equal(t, only, oldestMembership([]model.User{only}))
}

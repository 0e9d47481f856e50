package services

import (
	"context"
	"testing"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionMatches(t *testing.T) {
	tests := []struct {
		granted, required string
		want              bool
	}{
		{"order.list", "order.list", true},
		{"order.*", "order.update_status", true},
		{"order.*", "orders.list", false},
		{"order.list", "order.update_status", false},
		{"*", "order.list", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PermissionMatches(tt.granted, tt.required), "%s vs %s", tt.granted, tt.required)
	}
}

func TestAccessPolicyRulesAreWellFormed(t *testing.T) {
	for name, rule := range AccessPolicy {
		for _, role := range rule.Roles {
			assert.True(t, IsBaseRole(role), "%s names unknown role %s", name, role)
		}
		for _, p := range rule.Permissions {
			assert.NotEmpty(t, p, name)
		}
	}
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	roleID := uuid.New()
	repo := &MockRolePermissionRepository{}
	repo.Test(t)
	repo.On("PermissionNames", ctx, roleID).Return([]string{"order.*", "table.list"}, nil).Once()

	cache, _ := newTestCache(t)
	svc := NewRBACService(repo, cache, discardLogger())
	seller := &common.Principal{RoleID: roleID, RoleName: models.RoleSeller}

	assert.NoError(t, svc.Authorize(ctx, seller, AccessPolicy["order.updateStatus"]))
	assert.NoError(t, svc.Authorize(ctx, seller, AccessPolicy["table.list"]))
	assert.Equal(t, common.KindForbidden, common.KindOf(svc.Authorize(ctx, seller, AccessPolicy["role.delete"])))
	assert.Equal(t, common.KindForbidden, common.KindOf(svc.Authorize(ctx, seller, AccessPolicy["cart.get"])))
	assert.Equal(t, common.KindUnauthorized, common.KindOf(svc.Authorize(ctx, nil, AccessRule{})))

	// All of the above were served by a single repository read.
	repo.AssertExpectations(t)
}

func TestRolePermissions_InvalidateRefetches(t *testing.T) {
	ctx := context.Background()
	roleID := uuid.New()
	repo := &MockRolePermissionRepository{}
	repo.On("PermissionNames", ctx, roleID).Return([]string{"order.list"}, nil).Once()
	repo.On("PermissionNames", ctx, roleID).Return([]string{"order.list", "promotion.list"}, nil).Once()

	cache, _ := newTestCache(t)
	svc := NewRBACService(repo, cache, discardLogger())

	names, err := svc.RolePermissions(ctx, roleID)
	require.NoError(t, err)
	assert.Equal(t, []string{"order.list"}, names)

	require.NoError(t, svc.InvalidateRole(ctx, roleID))
	names, err = svc.RolePermissions(ctx, roleID)
	require.NoError(t, err)
	assert.Equal(t, []string{"order.list", "promotion.list"}, names)
	repo.AssertExpectations(t)
}

package services

import (
	"context"
	"log/slog"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/common"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const rolePermissionsTTL = 5 * time.Minute

type RBACService interface {
	// Authorize returns nil, UnauthorizedError or ForbiddenError.
	Authorize(ctx context.Context, p *common.Principal, rule AccessRule) error
	RolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, error)
	InvalidateRole(ctx context.Context, roleID uuid.UUID) error
}

type rbacService struct {
	rolePermissionRepo repositories.RolePermissionRepository
	cacheSvc           caching.CacheService
	logger             *slog.Logger
}

func NewRBACService(rolePermissionRepo repositories.RolePermissionRepository, cacheSvc caching.CacheService, logger *slog.Logger) RBACService {
	return &rbacService{
		rolePermissionRepo: rolePermissionRepo,
		cacheSvc:           cacheSvc,
		logger:             logger,
	}
}

func (s *rbacService) Authorize(ctx context.Context, p *common.Principal, rule AccessRule) error {
	if p == nil {
		return common.NewUnauthorizedError("authentication required")
	}
	if len(rule.Roles) > 0 && !p.HasRole(rule.Roles...) {
		return common.NewForbiddenError("role not allowed")
	}
	if len(rule.Permissions) == 0 {
		return nil
	}

	granted, err := s.RolePermissions(ctx, p.RoleID)
	if err != nil {
		return err
	}
	allowed := lo.SomeBy(rule.Permissions, func(required string) bool {
		return lo.SomeBy(granted, func(g string) bool { return PermissionMatches(g, required) })
	})
	if !allowed {
		return common.NewForbiddenError("missing permission")
	}
	return nil
}

func (s *rbacService) RolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	names, found, err := s.cacheSvc.GetRolePermissions(ctx, roleID)
	if err != nil {
		s.logger.Warn("role permission cache read failed", "role_id", roleID, "error", err)
	} else if found {
		return names, nil
	}

	names, err = s.rolePermissionRepo.PermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetRolePermissions(ctx, roleID, names, rolePermissionsTTL); err != nil {
		s.logger.Warn("role permission cache write failed", "role_id", roleID, "error", err)
	}
	return names, nil
}

func (s *rbacService) InvalidateRole(ctx context.Context, roleID uuid.UUID) error {
	return s.cacheSvc.DeleteRolePermissions(ctx, roleID)
}

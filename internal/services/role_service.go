package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"
	"dinerhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

type RoleService interface {
	List(ctx context.Context, params common.PageParams) (*common.Page[*models.Role], error)
	// Get returns the role with its permissions.
	Get(ctx context.Context, id uuid.UUID) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	// Update applies only the fields set in req.
	Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*models.Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AssignPermissions replaces the role's permission set atomically.
	AssignPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (*models.Role, error)
}

// UpdateRoleRequest is a partial role update. An inactive role grants no permissions.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type roleService struct {
	transactor         database.Transactor
	roleRepo           repositories.RoleRepository
	permissionRepo     repositories.PermissionRepository
	rolePermissionRepo repositories.RolePermissionRepository
	rbac               RBACService
	logger             *slog.Logger
}

func NewRoleService(
	transactor database.Transactor,
	roleRepo repositories.RoleRepository,
	permissionRepo repositories.PermissionRepository,
	rolePermissionRepo repositories.RolePermissionRepository,
	rbac RBACService,
	logger *slog.Logger,
) RoleService {
	return &roleService{
		transactor:         transactor,
		roleRepo:           roleRepo,
		permissionRepo:     permissionRepo,
		rolePermissionRepo: rolePermissionRepo,
		rbac:               rbac,
		logger:             logger,
	}
}

// IsBaseRole reports whether name is one of the built-in roles.
func IsBaseRole(name string) bool {
	return slices.Contains(models.BaseRoles, strings.ToUpper(name))
}

func (s *roleService) List(ctx context.Context, params common.PageParams) (*common.Page[*models.Role], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Role, error) {
			return s.roleRepo.List(ctx, limit, offset)
		},
		s.roleRepo.Count,
	)
}

func (s *roleService) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	perms, err := s.rolePermissionRepo.ListByRole(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return role, nil
}

func (s *roleService) Create(ctx context.Context, role *models.Role) error {
	role.Name = strings.ToUpper(strings.TrimSpace(role.Name))
	if role.Name == "" {
		return common.NewValidationError("name", "name is required")
	}
	if IsBaseRole(role.Name) {
		return common.NewConflictError("a built-in role already uses that name")
	}
	role.ID = uuid.New()
	role.IsActive = true
	return s.roleRepo.Create(ctx, role)
}

func (s *roleService) Update(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	base := IsBaseRole(role.Name)

	if req.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*req.Name))
		switch {
		case name == "":
			return nil, common.NewValidationError("name", "name must not be blank")
		case base && name != role.Name:
			return nil, common.NewForbiddenError("built-in roles cannot be renamed")
		case !base && IsBaseRole(name):
			return nil, common.NewConflictError("a built-in role already uses that name")
		}
		role.Name = name
	}
	if req.Description != nil {
		role.Description = req.Description
	}
	activeChanged := req.IsActive != nil && *req.IsActive != role.IsActive
	if activeChanged {
		if base && !*req.IsActive {
			return nil, common.NewForbiddenError("built-in roles cannot be deactivated")
		}
		role.IsActive = *req.IsActive
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}
	if activeChanged {
		s.invalidate(ctx, id)
	}
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.roleRepo.GetByID(ctx, id, false)
	if err != nil {
		return err
	}
	if IsBaseRole(existing.Name) {
		return common.NewForbiddenError("built-in roles cannot be deleted")
	}
	holders, err := s.roleRepo.CountHolders(ctx, id)
	if err != nil {
		return err
	}
	if holders > 0 {
		return common.NewConflictError(fmt.Sprintf("role is still assigned to %d users", holders))
	}

	err = s.transactor.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := s.roleRepo.WithTx(tx).SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.rolePermissionRepo.WithTx(tx).Replace(ctx, id, nil)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("role deleted", "role_id", id, "name", existing.Name)
	return nil
}

func (s *roleService) AssignPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (*models.Role, error) {
	ids := lo.Uniq(permissionIDs)
	if len(ids) > 0 {
		found, err := s.permissionRepo.CountExisting(ctx, ids)
		if err != nil {
			return nil, err
		}
		if found != len(ids) {
			return nil, common.NewValidationError("permission_ids", "one or more permissions do not exist")
		}
	}

	err := s.transactor.WithinTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.roleRepo.WithTx(tx).GetByID(ctx, roleID, false); err != nil {
			return err
		}
		return s.rolePermissionRepo.WithTx(tx).Replace(ctx, roleID, ids)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, roleID)
	s.logger.Info("role permissions replaced", "role_id", roleID, "count", len(ids))
	return s.Get(ctx, roleID)
}

func (s *roleService) invalidate(ctx context.Context, roleID uuid.UUID) {
	if err := s.rbac.InvalidateRole(ctx, roleID); err != nil {
		s.logger.Warn("failed to invalidate role permissions", "role_id", roleID, "error", err)
	}
}

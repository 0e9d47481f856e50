package services

import (
	"context"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
)

type PermissionService interface {
	List(ctx context.Context, module string, params common.PageParams) (*common.Page[*models.Permission], error)
	Get(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	Create(ctx context.Context, permission *models.Permission) error
	Update(ctx context.Context, permission *models.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type permissionService struct {
	permissionRepo repositories.PermissionRepository
}

func NewPermissionService(permissionRepo repositories.PermissionRepository) PermissionService {
	return &permissionService{permissionRepo: permissionRepo}
}

func (s *permissionService) List(ctx context.Context, module string, params common.PageParams) (*common.Page[*models.Permission], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Permission, error) {
			return s.permissionRepo.List(ctx, module, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.permissionRepo.Count(ctx, module)
		},
	)
}

func (s *permissionService) Get(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	return s.permissionRepo.GetByID(ctx, id, false)
}

// normalizePermission enforces "<module>.<action>" and derives Module from it.
func normalizePermission(p *models.Permission) error {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	module, action, ok := strings.Cut(p.Name, ".")
	if !ok || module == "" || action == "" {
		return common.NewValidationError("name", `must look like "<module>.<action>"`)
	}
	p.Module = module
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
	return nil
}

func (s *permissionService) Create(ctx context.Context, p *models.Permission) error {
	if err := normalizePermission(p); err != nil {
		return err
	}
	p.ID = uuid.New()
	return s.permissionRepo.Create(ctx, p)
}

func (s *permissionService) Update(ctx context.Context, p *models.Permission) error {
	if err := normalizePermission(p); err != nil {
		return err
	}
	return s.permissionRepo.Update(ctx, p)
}

func (s *permissionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.permissionRepo.SoftDelete(ctx, id)
}

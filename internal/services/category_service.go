package services

import (
	"context"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
)

type CategoryService interface {
	Create(ctx context.Context, category *models.Category) error
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, params common.PageParams) (*common.Page[*models.Category], error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) Create(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if err := common.ValidateRequiredString(category.Name, "name"); err != nil {
		return err
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return s.categoryRepo.Create(ctx, category)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id, false)
}

func (s *categoryService) List(ctx context.Context, params common.PageParams) (*common.Page[*models.Category], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Category, error) {
			return s.categoryRepo.List(ctx, limit, offset)
		},
		s.categoryRepo.Count,
	)
}

func (s *categoryService) Update(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if err := common.ValidateRequiredString(category.Name, "name"); err != nil {
		return err
	}
	return s.categoryRepo.Update(ctx, category)
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.SoftDelete(ctx, id)
}

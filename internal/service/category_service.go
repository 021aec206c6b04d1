package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name     string
	Slug     string
	Icon     string
	ParentID *uint
}

type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List()
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFoundAs(err, "category")
	}
	return c, nil
}

func (s *CategoryService) apply(c *models.Category, in CategoryInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name is required")
	}
	sl := slug.Make(in.Slug)
	if sl == "" {
		sl = slug.Make(name)
	}
	if sl == "" {
		return invalid("cannot derive a slug from %q", name)
	}
	if in.ParentID != nil {
		if c.ID != 0 && *in.ParentID == c.ID {
			return invalid("a category cannot be its own parent")
		}
		if _, err := s.repo.GetByID(*in.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("unknown parent category %d", *in.ParentID)
			}
			return err
		}
	}
	c.Name, c.Slug, c.Icon, c.ParentID = name, sl, strings.TrimSpace(in.Icon), in.ParentID
	return nil
}

func duplicateSlug(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: category slug already in use", domain.ErrConflict)
	}
	return err
}

func (s *CategoryService) Create(ctx context.Context, caller domain.Caller, in CategoryInput) (*models.Category, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	c := &models.Category{}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(c); err != nil {
		return nil, duplicateSlug(err)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, caller domain.Caller, id uint, in CategoryInput) (*models.Category, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, duplicateSlug(err)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	if !caller.IsAdmin() {
		return forbidden("admin role required")
	}
	return notFoundAs(s.repo.Delete(id), "category")
}

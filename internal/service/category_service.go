package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"adminhub/internal/model"
	"adminhub/internal/repository"
)

// DTOs

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Position    *int   `json:"position"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CategoryService defines business logic for content categories
type CategoryService interface {
	ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error)
	GetCategory(ctx context.Context, id string) (*CategoryResponse, error)
	CreateCategory(ctx context.Context, actorID string, req CreateCategoryRequest) (*CategoryResponse, error)
	UpdateCategory(ctx context.Context, actorID, id string, req UpdateCategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, actorID, id string) error
}

type categoryService struct {
	repo     repository.CategoryRepository
	activity ActivityRecorder
}

// NewCategoryService creates a new CategoryService instance
func NewCategoryService(repo repository.CategoryRepository, activity ActivityRecorder) CategoryService {
	return &categoryService{repo: repo, activity: activity}
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL-safe slug from a display name
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleaner.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func (s *categoryService) ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error) {
	categories, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, toCategoryResponse(c))
	}
	return res, total, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id string) (*CategoryResponse, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("category not found")
	}
	resp := toCategoryResponse(*category)
	return &resp, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, actorID string, req CreateCategoryRequest) (*CategoryResponse, error) {
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	if slug == "" {
		return nil, errors.New("cannot derive a slug from the category name")
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("category slug '%s' already exists", slug)
	}

	category := model.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Position:    req.Position,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionCreateCategory, "categories", category.ID.String(), category.Name, nil)

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, actorID, id string, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("category not found")
	}

	category.Name = req.Name
	if req.Slug != "" && req.Slug != category.Slug {
		if _, err := s.repo.GetBySlug(ctx, req.Slug); err == nil {
			return nil, fmt.Errorf("category slug '%s' already exists", req.Slug)
		}
		category.Slug = req.Slug
	}
	category.Description = req.Description
	if req.Position != nil {
		category.Position = *req.Position
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionUpdateCategory, "categories", category.ID.String(), category.Name, nil)

	resp := toCategoryResponse(*category)
	return &resp, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actorID, id string) error {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("category not found")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionDeleteCategory, "categories", id, category.Name, nil)
	return nil
}

func toCategoryResponse(c model.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Position:    c.Position,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   c.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

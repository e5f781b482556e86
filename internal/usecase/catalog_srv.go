package usecase

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

// CatalogService manages categories and genres, both addressed by slug.
type CatalogService interface {
	ListCategories(ctx context.Context, req *request.SlugListRequest) (*response.PaginatedResponse[response.SlugItemResponse], error)
	CreateCategory(ctx context.Context, req *request.SlugItemRequest) (*response.SlugItemResponse, error)
	DeleteCategory(ctx context.Context, slug string) error
	ListGenres(ctx context.Context, req *request.SlugListRequest) (*response.PaginatedResponse[response.SlugItemResponse], error)
	CreateGenre(ctx context.Context, req *request.SlugItemRequest) (*response.SlugItemResponse, error)
	DeleteGenre(ctx context.Context, slug string) error
}

type catalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) CatalogService {
	return &catalogService{
		repo: repo,
		log:  log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) ListCategories(ctx context.Context, req *request.SlugListRequest) (*response.PaginatedResponse[response.SlugItemResponse], error) {
	categories, err := s.repo.Category.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	total, err := s.repo.Category.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	items := make([]response.SlugItemResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, response.CategoryToResponse(c))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req *request.SlugItemRequest) (*response.SlugItemResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create category validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	category := &entity.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Category.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("slug", "A category with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.log.Info("Category created", zap.Int64("category_id", category.ID), zap.String("slug", category.Slug))
	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, slug string) error {
	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return notFound("category")
	}

	if err := s.repo.Category.Delete(ctx, category.ID); err != nil {
		return writeFailed(err, "category", "delete")
	}

	s.log.Info("Category deleted", zap.String("slug", slug))
	return nil
}

func (s *catalogService) ListGenres(ctx context.Context, req *request.SlugListRequest) (*response.PaginatedResponse[response.SlugItemResponse], error) {
	genres, err := s.repo.Genre.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}

	total, err := s.repo.Genre.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}

	items := make([]response.SlugItemResponse, 0, len(genres))
	for _, g := range genres {
		items = append(items, response.GenreToResponse(g))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *catalogService) CreateGenre(ctx context.Context, req *request.SlugItemRequest) (*response.SlugItemResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create genre validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	genre := &entity.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Genre.Create(ctx, genre); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("slug", "A genre with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}

	s.log.Info("Genre created", zap.Int64("genre_id", genre.ID), zap.String("slug", genre.Slug))
	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *catalogService) DeleteGenre(ctx context.Context, slug string) error {
	genre, err := s.repo.Genre.FindBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to find genre: %w", err)
	}
	if genre == nil {
		return notFound("genre")
	}

	if err := s.repo.Genre.Delete(ctx, genre.ID); err != nil {
		return writeFailed(err, "genre", "delete")
	}

	s.log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}

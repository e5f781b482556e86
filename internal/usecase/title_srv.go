package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type TitleService interface {
	List(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	Get(ctx context.Context, id int64) (*response.TitleResponse, error)
	Create(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error)
	Update(ctx context.Context, id int64, req *request.UpdateTitleRequest) (*response.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTitleService(repo *repository.Repository, log *zap.Logger) TitleService {
	return &titleService{
		repo: repo,
		log:  log.With(zap.String("service", "title")),
	}
}

// Rating truncates the mean score to an integer. It is nil for titles without reviews.
func Rating(stats entity.ReviewStats, ok bool) *int {
	if !ok || stats.ReviewCount == 0 {
		return nil
	}
	rating := int(stats.AverageScore)
	return &rating
}

func (s *titleService) List(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	filter := entity.TitleFilter{
		CategorySlug: req.Category,
		GenreSlug:    req.Genre,
		Name:         req.Name,
		Year:         req.Year,
	}

	titles, err := s.repo.Title.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get titles: %w", err)
	}

	total, err := s.repo.Title.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}

	items, err := s.toResponses(ctx, titles)
	if err != nil {
		return nil, err
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*response.TitleResponse, error) {
	title, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, title)
}

func (s *titleService) Create(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create title validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	title := &entity.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		Category:    category,
	}
	if category != nil {
		title.CategoryID = &category.ID
	}

	if err := s.repo.Title.Create(ctx, title, genreIDs); err != nil {
		return nil, writeFailed(err, "title", "create")
	}

	s.log.Info("Title created", zap.Int64("title_id", title.ID), zap.String("name", title.Name))
	return s.toResponse(ctx, title)
}

func (s *titleService) Update(ctx context.Context, id int64, req *request.UpdateTitleRequest) (*response.TitleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update title validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	title, err := s.findTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.Category, title.CategoryID = category, nil
		if category != nil {
			title.CategoryID = &category.ID
		}
	}

	var genreIDs []int64
	if req.Genre != nil {
		if genreIDs, err = s.resolveGenres(ctx, *req.Genre); err != nil {
			return nil, err
		}
		if genreIDs == nil {
			genreIDs = []int64{}
		}
	}

	if err := s.repo.Title.Update(ctx, title, genreIDs); err != nil {
		return nil, writeFailed(err, "title", "update")
	}

	s.log.Info("Title updated", zap.Int64("title_id", title.ID))
	return s.toResponse(ctx, title)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.findTitle(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Title.Delete(ctx, id); err != nil {
		return writeFailed(err, "title", "delete")
	}

	s.log.Info("Title deleted", zap.Int64("title_id", id))
	return nil
}

func (s *titleService) findTitle(ctx context.Context, id int64) (*entity.Title, error) {
	title, err := s.repo.Title.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find title: %w", err)
	}
	if title == nil {
		return nil, notFound("title")
	}
	return title, nil
}

// resolveCategory maps a slug to its category. An empty slug means no category.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*entity.Category, error) {
	if slug == "" {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, fieldError("category", fmt.Sprintf("Unknown category slug %q", slug))
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]int64, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	genres, err := s.repo.Genre.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("failed to find genres: %w", err)
	}

	known := make(map[string]int64, len(genres))
	for _, g := range genres {
		known[g.Slug] = g.ID
	}

	var missing []string
	ids := make([]int64, 0, len(genres))
	seen := make(map[int64]bool, len(genres))
	for _, slug := range slugs {
		id, ok := known[slug]
		if !ok {
			missing = append(missing, slug)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fieldError("genre", "Unknown genre slugs: "+strings.Join(missing, ", "))
	}
	return ids, nil
}

func (s *titleService) toResponse(ctx context.Context, title *entity.Title) (*response.TitleResponse, error) {
	items, err := s.toResponses(ctx, []*entity.Title{title})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// toResponses loads genres and ratings for all titles in two batched queries.
func (s *titleService) toResponses(ctx context.Context, titles []*entity.Title) ([]response.TitleResponse, error) {
	ids := make([]int64, 0, len(titles))
	for _, t := range titles {
		ids = append(ids, t.ID)
	}

	genres, err := s.repo.Genre.FindByTitleIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	stats, err := s.repo.Review.StatsByTitleIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	items := make([]response.TitleResponse, 0, len(titles))
	for _, t := range titles {
		st, ok := stats[t.ID]
		items = append(items, response.TitleToResponse(t, genres[t.ID], Rating(st, ok)))
	}
	return items, nil
}

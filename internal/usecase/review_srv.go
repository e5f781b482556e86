package usecase

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type ReviewService interface {
	List(ctx context.Context, titleID int64, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*response.ReviewResponse, error)
	Create(ctx context.Context, actor authz.Actor, titleID int64, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	Update(ctx context.Context, actor authz.Actor, titleID, reviewID int64, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	Delete(ctx context.Context, actor authz.Actor, titleID, reviewID int64) error
}

type reviewService struct {
	repo     *repository.Repository
	enforcer *authz.Enforcer
	log      *zap.Logger
}

func NewReviewService(repo *repository.Repository, enforcer *authz.Enforcer, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:     repo,
		enforcer: enforcer,
		log:      log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) List(ctx context.Context, titleID int64, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	reviews, err := s.repo.Review.FindByTitleID(ctx, titleID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	total, err := s.repo.Review.CountByTitleID(ctx, titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	items := make([]response.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, response.ReviewToResponse(r))
	}

	return response.NewPaginatedResponse(items, page.Page, page.Limit(), total), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*response.ReviewResponse, error) {
	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) Create(ctx context.Context, actor authz.Actor, titleID int64, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	review := &entity.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Duplicate review rejected", zap.Int64("title_id", titleID), zap.Int64("author_id", actor.ID))
			return nil, fieldError("non_field_errors", "You have already reviewed this title")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	created, err := s.findReview(ctx, titleID, review.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("title_id", titleID),
		zap.Int64("author_id", actor.ID),
	)
	resp := response.ReviewToResponse(created)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor authz.Actor, titleID, reviewID int64, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, review); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update review validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := s.repo.Review.Update(ctx, review); err != nil {
		return nil, writeFailed(err, "review", "update")
	}

	s.log.Info("Review updated", zap.Int64("review_id", reviewID), zap.Int64("actor_id", actor.ID))
	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor authz.Actor, titleID, reviewID int64) error {
	review, err := s.findReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, review); err != nil {
		return err
	}

	if err := s.repo.Review.Delete(ctx, reviewID); err != nil {
		return writeFailed(err, "review", "delete")
	}

	s.log.Info("Review deleted", zap.Int64("review_id", reviewID), zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *reviewService) authorize(actor authz.Actor, review *entity.Review) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	if !s.enforcer.CanModify(actor, authz.ObjReview, review.AuthorID) {
		s.log.Warn("Review modification denied", zap.Int64("review_id", review.ID), zap.Int64("actor_id", actor.ID))
		return ErrForbidden
	}
	return nil
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID int64) error {
	title, err := s.repo.Title.FindByID(ctx, titleID)
	if err != nil {
		return fmt.Errorf("failed to find title: %w", err)
	}
	if title == nil {
		return notFound("title")
	}
	return nil
}

// findReview loads a review and checks it belongs to titleID.
func (s *reviewService) findReview(ctx context.Context, titleID, reviewID int64) (*entity.Review, error) {
	return findTitleReview(ctx, s.repo.Review, titleID, reviewID)
}

func findTitleReview(ctx context.Context, reviews repository.ReviewRepository, titleID, reviewID int64) (*entity.Review, error) {
	review, err := reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	if review == nil || review.TitleID != titleID {
		return nil, notFound("review")
	}
	return review, nil
}

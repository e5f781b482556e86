package usecase

import (
	"context"
	"fmt"

	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*response.CommentResponse, error)
	Create(ctx context.Context, actor authz.Actor, titleID, reviewID int64, req *request.CommentRequest) (*response.CommentResponse, error)
	Update(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID int64, req *request.CommentRequest) (*response.CommentResponse, error)
	Delete(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID int64) error
}

type commentService struct {
	repo     *repository.Repository
	enforcer *authz.Enforcer
	log      *zap.Logger
}

func NewCommentService(repo *repository.Repository, enforcer *authz.Enforcer, log *zap.Logger) CommentService {
	return &commentService{
		repo:     repo,
		enforcer: enforcer,
		log:      log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	if _, err := findTitleReview(ctx, s.repo.Review, titleID, reviewID); err != nil {
		return nil, err
	}

	comments, err := s.repo.Comment.FindByReviewID(ctx, reviewID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	total, err := s.repo.Comment.CountByReviewID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	items := make([]response.CommentResponse, 0, len(comments))
	for _, c := range comments {
		items = append(items, response.CommentToResponse(c))
	}

	return response.NewPaginatedResponse(items, page.Page, page.Limit(), total), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor authz.Actor, titleID, reviewID int64, req *request.CommentRequest) (*response.CommentResponse, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if _, err := findTitleReview(ctx, s.repo.Review, titleID, reviewID); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create comment validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	comment := &entity.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.findComment(ctx, titleID, reviewID, comment.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Comment created", zap.Int64("comment_id", comment.ID), zap.Int64("review_id", reviewID))
	resp := response.CommentToResponse(created)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID int64, req *request.CommentRequest) (*response.CommentResponse, error) {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, comment); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update comment validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	comment.Text = req.Text
	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		return nil, writeFailed(err, "comment", "update")
	}

	s.log.Info("Comment updated", zap.Int64("comment_id", commentID), zap.Int64("actor_id", actor.ID))
	resp := response.CommentToResponse(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID int64) error {
	comment, err := s.findComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, comment); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, commentID); err != nil {
		return writeFailed(err, "comment", "delete")
	}

	s.log.Info("Comment deleted", zap.Int64("comment_id", commentID), zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *commentService) authorize(actor authz.Actor, comment *entity.Comment) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	if !s.enforcer.CanModify(actor, authz.ObjComment, comment.AuthorID) {
		s.log.Warn("Comment modification denied", zap.Int64("comment_id", comment.ID), zap.Int64("actor_id", actor.ID))
		return ErrForbidden
	}
	return nil
}

func (s *commentService) findComment(ctx context.Context, titleID, reviewID, commentID int64) (*entity.Comment, error) {
	if _, err := findTitleReview(ctx, s.repo.Review, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil || comment.ReviewID != reviewID {
		return nil, notFound("comment")
	}
	return comment, nil
}

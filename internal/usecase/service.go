package usecase

import (
	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/pkg/mailer"
	"yamdb/pkg/token"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Catalog CatalogService
	Title   TitleService
	Review  ReviewService
	Comment CommentService
}

func NewService(
	repo *repository.Repository,
	enforcer *authz.Enforcer,
	mail mailer.Mailer,
	tokens *token.Manager,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(repo, mail, tokens, config, log),
		User:    NewUserService(repo.User, log),
		Catalog: NewCatalogService(repo, log),
		Title:   NewTitleService(repo, log),
		Review:  NewReviewService(repo, enforcer, log),
		Comment: NewCommentService(repo, enforcer, log),
	}
}

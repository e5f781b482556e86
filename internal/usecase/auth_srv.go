package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/internal/dto/request"
	"yamdb/internal/dto/response"
	"yamdb/pkg/mailer"
	"yamdb/pkg/token"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const confirmationSubject = "YaMDb confirmation code"

type AuthService interface {
	Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error)
	Token(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
}

type authService struct {
	repo   *repository.Repository
	mailer mailer.Mailer
	tokens *token.Manager
	config *utils.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	mail mailer.Mailer,
	tokens *token.Manager,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		mailer: mail,
		tokens: tokens,
		config: config,
		log:    log.With(zap.String("service", "auth")),
		now:    time.Now,
	}
}

// Signup gets or creates the user bound to (username, email) and mails a fresh
// confirmation code. Previously issued codes stop working.
func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*response.SignupResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Signup validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	user, err := s.getOrCreateUser(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ConfirmationCode.InvalidateForUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to reset confirmation codes: %w", err)
	}

	code, err := utils.GenerateConfirmationCode(s.config.Code.Length)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash confirmation code: %w", err)
	}

	expiresAt := s.now().Add(time.Duration(s.config.Code.ExpiryMinutes) * time.Minute)
	if err := s.repo.ConfirmationCode.Create(ctx, &entity.ConfirmationCode{
		UserID:    user.ID,
		Email:     user.Email,
		CodeHash:  string(hash),
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to store confirmation code: %w", err)
	}

	body := fmt.Sprintf("Your confirmation code: %s\nIt expires at %s.", code, expiresAt.UTC().Format(time.RFC3339))
	if err := s.mailer.Send(ctx, user.Email, confirmationSubject, body); err != nil {
		s.log.Error("Failed to send confirmation code", zap.Error(err), zap.String("email", user.Email))
		return nil, fmt.Errorf("failed to send confirmation code: %w", err)
	}

	s.log.Info("Confirmation code sent",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Time("expires_at", expiresAt),
	)

	return &response.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *authService) getOrCreateUser(ctx context.Context, username, email string) (*entity.User, error) {
	byName, err := s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if byName != nil && byName.Email == email {
		return byName, nil
	}

	byEmail, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	errs := make(map[string]string)
	if byName != nil {
		errs["username"] = "A user with this username already exists"
	}
	if byEmail != nil {
		errs["email"] = "A user with this email already exists"
	}
	if len(errs) > 0 {
		s.log.Warn("Signup conflicts with existing user", zap.String("username", username), zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Role:     entity.RoleUser,
		IsActive: true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("username", "A user with this username or email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Token exchanges a valid confirmation code for a bearer token. The code is single use.
func (s *authService) Token(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Token validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	user, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	if !user.IsActive {
		s.log.Warn("Inactive user requested a token", zap.Int64("user_id", user.ID))
		return nil, fmt.Errorf("account is deactivated: %w", ErrForbidden)
	}

	code, err := s.repo.ConfirmationCode.FindLatestValid(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmation code: %w", err)
	}
	if code == nil || bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(req.ConfirmationCode)) != nil {
		s.log.Warn("Invalid confirmation code", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidConfirmationCode
	}

	if err := s.repo.ConfirmationCode.MarkAsUsed(ctx, code.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Confirmation code already consumed", zap.Int64("user_id", user.ID), zap.Int64("code_id", code.ID))
			return nil, ErrInvalidConfirmationCode
		}
		return nil, fmt.Errorf("failed to consume confirmation code: %w", err)
	}
	if err := s.repo.User.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.log.Warn("Failed to update last login", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	signed, err := s.tokens.Generate(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info("Token issued", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return &response.TokenResponse{Token: signed}, nil
}

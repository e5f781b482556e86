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

type UserService interface {
	List(ctx context.Context, req *request.UserListRequest) (*response.PaginatedResponse[response.UserResponse], error)
	Create(ctx context.Context, req *request.CreateUserRequest) (*response.UserResponse, error)
	Get(ctx context.Context, username string) (*response.UserResponse, error)
	Update(ctx context.Context, username string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	Delete(ctx context.Context, username string) error
	GetMe(ctx context.Context, userID int64) (*response.UserResponse, error)
	// UpdateMe applies req to the caller's own profile. Role is ignored.
	UpdateMe(ctx context.Context, userID int64, req *request.UpdateUserRequest) (*response.UserResponse, error)
	// CreateSuperuser creates an admin account or promotes the existing one.
	CreateSuperuser(ctx context.Context, username, email string) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) List(ctx context.Context, req *request.UserListRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	users, err := us.userRepo.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	total, err := us.userRepo.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	items := make([]response.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, response.UserToResponse(user))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (us *userService) Create(ctx context.Context, req *request.CreateUserRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Create user validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	if err := us.checkUnique(ctx, 0, req.Username, req.Email); err != nil {
		return nil, err
	}

	role := entity.UserRole(req.Role)
	if role == "" {
		role = entity.RoleUser
	}

	user := &entity.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
		IsActive:  true,
	}
	if err := us.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("username", "A user with this username or email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	us.log.Info("User created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Get(ctx context.Context, username string) (*response.UserResponse, error) {
	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Update(ctx context.Context, username string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return us.applyUpdate(ctx, user, req, true)
}

func (us *userService) Delete(ctx context.Context, username string) error {
	user, err := us.findByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := us.userRepo.Delete(ctx, user.ID); err != nil {
		return writeFailed(err, "user", "delete")
	}

	us.log.Info("User deleted", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

func (us *userService) GetMe(ctx context.Context, userID int64) (*response.UserResponse, error) {
	user, err := us.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateMe(ctx context.Context, userID int64, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	user, err := us.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return us.applyUpdate(ctx, user, req, false)
}

func (us *userService) CreateSuperuser(ctx context.Context, username, email string) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		return us.Create(ctx, &request.CreateUserRequest{
			Username: username,
			Email:    email,
			Role:     string(entity.RoleAdmin),
		})
	}

	if user.Email != email {
		return nil, fieldError("email", "Email does not match the existing user")
	}

	role := string(entity.RoleAdmin)
	return us.applyUpdate(ctx, user, &request.UpdateUserRequest{Role: &role}, true)
}

func (us *userService) applyUpdate(ctx context.Context, user *entity.User, req *request.UpdateUserRequest, allowRole bool) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Update user validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	newUsername, newEmail := user.Username, user.Email
	if req.Username != nil {
		newUsername = *req.Username
	}
	if req.Email != nil {
		newEmail = *req.Email
	}
	if err := us.checkUnique(ctx, user.ID, newUsername, newEmail); err != nil {
		return nil, err
	}

	user.Username, user.Email = newUsername, newEmail
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if allowRole && req.Role != nil {
		user.Role = entity.UserRole(*req.Role)
	}

	if err := us.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("username", "A user with this username or email already exists")
		}
		return nil, writeFailed(err, "user", "update")
	}

	us.log.Info("User updated", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	resp := response.UserToResponse(user)
	return &resp, nil
}

// checkUnique rejects a username or email already held by a user other than selfID.
func (us *userService) checkUnique(ctx context.Context, selfID int64, username, email string) error {
	errs := make(map[string]string)

	existing, err := us.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		errs["username"] = "A user with this username already exists"
	}

	existing, err = us.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		errs["email"] = "A user with this email already exists"
	}

	if len(errs) > 0 {
		return newValidationError(errs)
	}
	return nil
}

func (us *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := us.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

func (us *userService) findByID(ctx context.Context, id int64) (*entity.User, error) {
	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

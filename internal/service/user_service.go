package service

import (
	"context"
	"errors"
	"os"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"required,oneof=user admin super-platinum-admin"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role" binding:"omitempty,oneof=user admin super-platinum-admin"`
	Password    string `json:"password" binding:"omitempty,min=6"`
}

type LoginUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse returns a User without exposing the password hash
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Logout(ctx context.Context, userID string)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo    repository.UserRepository
	auditor AuditRecorder
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditor AuditRecorder) UserService {
	return &userService{repo: repo, auditor: auditor}
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Phone:       user.Phone,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, errors.New("invalid role")
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	// Credentials are stored as bcrypt hashes and compared with
	// bcrypt.CompareHashAndPassword — never plaintext.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Password:    string(hashedPassword),
		Role:        req.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, user.ID.String(), model.ActionCreateUser, user.ID.String(), user.Username, map[string]string{"role": user.Role})
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid username or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.auditor.Record(ctx, user.ID.String(), model.ActionLogin, user.ID.String(), user.Username, nil)
	return &TokenResponse{Token: tokenString}, nil
}

// Logout only records the event; token invalidation is cookie removal on the
// handler side.
func (s *userService) Logout(ctx context.Context, userID string) {
	username := ""
	if user, err := s.repo.GetByID(ctx, userID); err == nil {
		username = user.Username
	}
	s.auditor.Record(ctx, userID, model.ActionLogout, userID, username, nil)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapToResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			return nil, errors.New("invalid role")
		}
		user.Role = req.Role
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.New("failed to hash password")
		}
		user.Password = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, user.ID.String(), model.ActionUpdateUser, user.ID.String(), user.Username, map[string]string{"role": user.Role})
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, id, model.ActionDeleteUser, id, user.Username, nil)
	return nil
}

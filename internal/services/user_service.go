package services

import (
	"context"
	"log/slog"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionRevoker ends every session a user holds.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

type CreateUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"full_name"`
	Phone    *string    `json:"phone,omitempty"`
	RoleID   *uuid.UUID `json:"role_id,omitempty"`
}

type UpdateUserRequest struct {
	FullName *string    `json:"full_name,omitempty"`
	Phone    *string    `json:"phone,omitempty"`
	Avatar   *string    `json:"avatar,omitempty"`
	RoleID   *uuid.UUID `json:"role_id,omitempty"`
}

type UserService interface {
	// admin
	List(ctx context.Context, filter models.UserFilter, params common.PageParams) (*common.Page[*models.User], error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, req CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ban(ctx context.Context, id uuid.UUID) error
	Unban(ctx context.Context, id uuid.UUID) error
	ForceLogout(ctx context.Context, id uuid.UUID) error

	// profile
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*models.User, error)
	Addresses(ctx context.Context, userID uuid.UUID, params common.PageParams) (*common.Page[*models.Address], error)
	AddAddress(ctx context.Context, userID uuid.UUID, address *models.Address) error
}

type userService struct {
	userRepo    repositories.UserRepository
	roleRepo    repositories.RoleRepository
	addressRepo repositories.AddressRepository
	sessions    SessionRevoker
	logger      *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, roleRepo repositories.RoleRepository, addressRepo repositories.AddressRepository, sessions SessionRevoker, logger *slog.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		addressRepo: addressRepo,
		sessions:    sessions,
		logger:      logger,
	}
}

func (s *userService) List(ctx context.Context, filter models.UserFilter, params common.PageParams) (*common.Page[*models.User], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			return s.userRepo.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.userRepo.Count(ctx, filter)
		},
	)
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id, false)
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		return nil, common.NewValidationError("email", "a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, common.NewValidationError("password", "must be at least 8 characters")
	}
	if err := common.ValidateRequiredString(req.FullName, "full_name"); err != nil {
		return nil, err
	}

	var role *models.Role
	var err error
	if req.RoleID != nil {
		role, err = s.roleRepo.GetByID(ctx, *req.RoleID, false)
	} else {
		role, err = s.roleRepo.GetByName(ctx, models.RoleClient, false)
	}
	if err != nil {
		return nil, err
	}
	if role.Name == models.RoleGuest {
		return nil, common.NewValidationError("role_id", "accounts cannot hold the guest role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RoleID:       role.ID,
		RoleName:     role.Name,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	roleChanged := false
	if req.RoleID != nil && *req.RoleID != user.RoleID {
		role, err := s.roleRepo.GetByID(ctx, *req.RoleID, false)
		if err != nil {
			return nil, err
		}
		if role.Name == models.RoleGuest {
			return nil, common.NewValidationError("role_id", "accounts cannot hold the guest role")
		}
		user.RoleID, user.RoleName = role.ID, role.Name
		roleChanged = true
	}
	if err := s.apply(ctx, user, req); err != nil {
		return nil, err
	}
	// Tokens carry the role, so they must be reissued.
	if roleChanged {
		if err := s.sessions.RevokeAllSessions(ctx, id); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	req.RoleID = nil
	if err := s.apply(ctx, user, req); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) apply(ctx context.Context, user *models.User, req UpdateUserRequest) error {
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return common.NewValidationError("full_name", "full_name cannot be empty")
		}
		user.FullName = name
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	return s.userRepo.Update(ctx, user)
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	return s.sessions.RevokeAllSessions(ctx, id)
}

func (s *userService) Ban(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SetStatus(ctx, id, models.UserStatusBanned); err != nil {
		return err
	}
	s.logger.Info("user banned", "user_id", id)
	return s.sessions.RevokeAllSessions(ctx, id)
}

func (s *userService) Unban(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SetStatus(ctx, id, models.UserStatusActive); err != nil {
		return err
	}
	s.logger.Info("user unbanned", "user_id", id)
	return nil
}

func (s *userService) ForceLogout(ctx context.Context, id uuid.UUID) error {
	if _, err := s.userRepo.GetByID(ctx, id, false); err != nil {
		return err
	}
	return s.sessions.RevokeAllSessions(ctx, id)
}

func (s *userService) Addresses(ctx context.Context, userID uuid.UUID, params common.PageParams) (*common.Page[*models.Address], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Address, error) {
			return s.addressRepo.ListByUser(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.addressRepo.CountByUser(ctx, userID)
		},
	)
}

func (s *userService) AddAddress(ctx context.Context, userID uuid.UUID, address *models.Address) error {
	address.Line = strings.TrimSpace(address.Line)
	if address.Line == "" {
		return common.NewValidationError("line", "address line is required")
	}
	if err := common.ValidateRequiredString(address.Recipient, "recipient"); err != nil {
		return err
	}
	address.ID = uuid.New()
	address.UserID = userID
	return s.addressRepo.Create(ctx, address)
}

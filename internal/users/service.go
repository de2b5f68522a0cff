package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	"github.com/orderdeskhq/orderdesk-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UserView is the user payload returned to clients. PIN hashes never leave
// the service.
type UserView struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      enums.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewUserView maps a model row to its client shape.
func NewUserView(user models.User) UserView {
	return UserView{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// CreateUserInput captures a new staff account.
type CreateUserInput struct {
	Username string
	Name     string
	Role     enums.Role
	PIN      string
	Active   *bool
}

// UpdateUserInput merges non-nil fields into an existing user.
type UpdateUserInput struct {
	Name     *string
	Role     *enums.Role
	PIN      *string
	IsActive *bool
}

// Service defines staff account management operations.
type Service interface {
	List(ctx context.Context) ([]UserView, error)
	Get(ctx context.Context, id uuid.UUID) (*UserView, error)
	Create(ctx context.Context, input CreateUserInput) (*UserView, error)
	CreateBatch(ctx context.Context, inputs []CreateUserInput) ([]UserView, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserView, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*UserView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	orders OrderCounter
	pinCfg config.PINConfig
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository, tx txRunner, orders OrderCounter, pinCfg config.PINConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order counter required")
	}
	return &service{repo: repo, tx: tx, orders: orders, pinCfg: pinCfg}, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if username == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	if strings.ContainsAny(username, " \t\n") {
		return pkgerrors.New(pkgerrors.CodeValidation, "username must not contain whitespace")
	}
	return nil
}

func (s *service) buildUser(input CreateUserInput) (*models.User, error) {
	username := normalizeUsername(input.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if err := security.ValidatePIN(input.PIN); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pin")
	}

	hash, err := security.HashPIN(input.PIN, s.pinCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	return &models.User{
		Username: username,
		Name:     strings.TrimSpace(input.Name),
		Role:     input.Role,
		PINHash:  hash,
		IsActive: active,
	}, nil
}

func (s *service) List(ctx context.Context) ([]UserView, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	views := make([]UserView, len(rows))
	for i, row := range rows {
		views[i] = NewUserView(row)
	}
	return views, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewUserView(*user)
	return &view, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserView, error) {
	user, err := s.buildUser(input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	view := NewUserView(*created)
	return &view, nil
}

// CreateBatch creates every row or none. A duplicate username inside the batch
// or against stored users rejects the whole batch.
func (s *service) CreateBatch(ctx context.Context, inputs []CreateUserInput) ([]UserView, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch requires at least one row")
	}

	users := make([]*models.User, 0, len(inputs))
	seen := make(map[string]int, len(inputs))
	var rowErrs error
	for i, input := range inputs {
		user, err := s.buildUser(input)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		if prev, dup := seen[user.Username]; dup {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: duplicate username of row %d", i+1, prev))
			continue
		}
		seen[user.Username] = i + 1
		users = append(users, user)
	}
	if rowErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, rowErrs, "batch rejected")
	}

	views := make([]UserView, 0, len(users))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i, user := range users {
			created, err := repo.Create(ctx, user)
			if err != nil {
				if pkgerrors.IsUniqueViolation(err) {
					return pkgerrors.Newf(pkgerrors.CodeConflict, "row %d: username %s already exists", i+1, user.Username)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
			}
			views = append(views, NewUserView(*created))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserView, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		updates["role"] = *input.Role
	}
	if input.PIN != nil {
		if err := security.ValidatePIN(*input.PIN); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pin")
		}
		hash, err := security.HashPIN(*input.PIN, s.pinCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
		}
		updates["pin_hash"] = hash
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*UserView, error) {
	inactive := false
	return s.Update(ctx, id, UpdateUserInput{IsActive: &inactive})
}

// Delete removes a user only when no order references them. Referenced users
// must be deactivated instead so order history keeps a valid creator.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.orders.CountByCreator(ctx, user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "user has orders, deactivate instead")
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

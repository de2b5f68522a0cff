package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	pkgpagination "github.com/orderdeskhq/orderdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateProductInput captures a new catalog product.
type CreateProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description *string
	Unit        *string
	CategoryID  *uuid.UUID
	Images      []string
	Stock       int
	Enabled     *bool
}

// UpdateProductInput merges non-nil fields into an existing product.
type UpdateProductInput struct {
	Name          *string
	Price         *decimal.Decimal
	Description   *string
	Unit          *string
	CategoryID    *uuid.UUID
	ClearCategory bool
	Images        *[]string
	Stock         *int
	IsEnabled     *bool
}

// ListProductsInput carries product listing filters.
type ListProductsInput struct {
	Limit       int
	Cursor      string
	CategoryID  *uuid.UUID
	EnabledOnly bool
	Query       string
}

// ProductList couples a page of products with the next cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// BatchRowError reports one rejected row of a batch operation.
type BatchRowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// BatchProductResult reports a best-effort batch create.
type BatchProductResult struct {
	Created []models.Product `json:"created"`
	Errors  []BatchRowError  `json:"errors,omitempty"`
}

// CreateCategoryInput captures a new category.
type CreateCategoryInput struct {
	Name     string
	ColorTag *string
}

// UpdateCategoryInput merges non-nil fields into an existing category.
type UpdateCategoryInput struct {
	Name     *string
	ColorTag *string
}

// CreatePromotionInput captures a new promotion.
type CreatePromotionInput struct {
	Name           string
	ProductID      uuid.UUID
	WithdrawAmount int
	Active         *bool
}

// UpdatePromotionInput merges non-nil fields into an existing promotion.
type UpdatePromotionInput struct {
	Name           *string
	WithdrawAmount *int
	IsActive       *bool
}

// Service defines catalog management operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SetProductEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.Product, error)
	BatchCreateProducts(ctx context.Context, inputs []CreateProductInput) (*BatchProductResult, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, input UpdatePromotionInput) (*models.Promotion, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	query := listProductsParams{
		Limit:       input.Limit,
		CategoryID:  input.CategoryID,
		EnabledOnly: input.EnabledOnly,
		Query:       input.Query,
	}
	if input.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ProductList{Products: rows}
	if result.Products == nil {
		result.Products = []models.Product{}
	}
	if next != nil {
		result.NextCursor = pkgpagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateProductInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product stock must not be negative")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Description: input.Description,
		Unit:        input.Unit,
		CategoryID:  input.CategoryID,
		Images:      input.Images,
		Stock:       input.Stock,
		IsEnabled:   enabled,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Unit != nil {
		updates["unit"] = *input.Unit
	}
	if input.ClearCategory {
		updates["category_id"] = nil
	} else if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Images != nil {
		updates["images"] = pqArray(*input.Images)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product stock must not be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsEnabled != nil {
		updates["is_enabled"] = *input.IsEnabled
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) SetProductEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.Product, error) {
	return s.UpdateProduct(ctx, id, UpdateProductInput{IsEnabled: &enabled})
}

func (s *service) BatchCreateProducts(ctx context.Context, inputs []CreateProductInput) (*BatchProductResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch requires at least one row")
	}

	result := &BatchProductResult{Created: []models.Product{}}
	var rowErrs error
	for i, input := range inputs {
		created, err := s.CreateProduct(ctx, input)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", i+1, err))
			result.Errors = append(result.Errors, BatchRowError{Row: i + 1, Err: err.Error()})
			continue
		}
		result.Created = append(result.Created, *created)
	}

	if len(result.Created) == 0 && rowErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, rowErrs, "all rows rejected")
	}
	return result, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}

	category := &models.Category{
		Name:     strings.TrimSpace(input.Name),
		ColorTag: input.ColorTag,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.ColorTag != nil {
		updates["color_tag"] = *input.ColorTag
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}

	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload category")
	}
	return category, nil
}

// DeleteCategory removes the category and nulls product references in one
// transaction so products are never left pointing at a missing row.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindCategoryByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if err := repo.ClearProductCategory(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear product categories")
		}
		if err := repo.DeleteCategory(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		return nil
	})
}

func (s *service) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	promotions, err := s.repo.ListPromotions(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	if promotions == nil {
		promotions = []models.Promotion{}
	}
	return promotions, nil
}

func (s *service) CreatePromotion(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion name required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.WithdrawAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdraw amount must not be negative")
	}
	if _, err := s.repo.FindProductByID(ctx, input.ProductID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	promotion := &models.Promotion{
		Name:           strings.TrimSpace(input.Name),
		ProductID:      input.ProductID,
		WithdrawAmount: input.WithdrawAmount,
		IsActive:       active,
	}
	created, err := s.repo.CreatePromotion(ctx, promotion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

func (s *service) UpdatePromotion(ctx context.Context, id uuid.UUID, input UpdatePromotionInput) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.WithdrawAmount != nil {
		if *input.WithdrawAmount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdraw amount must not be negative")
		}
		updates["withdraw_amount"] = *input.WithdrawAmount
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.repo.FindPromotionByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if err := s.repo.UpdatePromotion(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}

	promotion, err := s.repo.FindPromotionByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload promotion")
	}
	return promotion, nil
}

func (s *service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	if _, err := s.repo.FindPromotionByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if err := s.repo.DeletePromotion(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	return nil
}

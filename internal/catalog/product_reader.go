package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

func pqArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

func isUniqueViolation(err error) bool {
	return pkgerrors.IsUniqueViolation(err)
}

// ProductReader exposes product lookups to order creation without pulling the
// whole catalog service into the orders package.
type ProductReader struct {
	repo Repository
}

// NewProductReader builds a reader over the catalog repository.
func NewProductReader(repo Repository) (*ProductReader, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &ProductReader{repo: repo}, nil
}

// FindByIDs loads products inside the caller's transaction when one is given.
func (r *ProductReader) FindByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error) {
	return r.repo.WithTx(tx).FindProductsByIDs(ctx, ids)
}

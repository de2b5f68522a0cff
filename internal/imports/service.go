package imports

import (
	"context"
	"fmt"
	"io"

	"github.com/orderdeskhq/orderdesk-backend/internal/catalog"
	"github.com/orderdeskhq/orderdesk-backend/internal/users"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

// ProductBatcher is the slice of the catalog service imports need.
type ProductBatcher interface {
	BatchCreateProducts(ctx context.Context, inputs []catalog.CreateProductInput) (*catalog.BatchProductResult, error)
}

// UserBatcher is the slice of the users service imports need.
type UserBatcher interface {
	CreateBatch(ctx context.Context, inputs []users.CreateUserInput) ([]users.UserView, error)
}

// Service parses uploaded spreadsheets and hands the rows to the batch
// operations: products best-effort, users all-or-nothing.
type Service interface {
	ImportProducts(ctx context.Context, r io.Reader) (*catalog.BatchProductResult, error)
	ImportUsers(ctx context.Context, r io.Reader) ([]users.UserView, error)
	ProductTemplate() ([]byte, error)
	UserTemplate() ([]byte, error)
}

type service struct {
	products ProductBatcher
	users    UserBatcher
}

// NewService builds an imports service with the required dependencies.
func NewService(products ProductBatcher, userBatch UserBatcher) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product batcher required")
	}
	if userBatch == nil {
		return nil, fmt.Errorf("user batcher required")
	}
	return &service{products: products, users: userBatch}, nil
}

func (s *service) ImportProducts(ctx context.Context, r io.Reader) (*catalog.BatchProductResult, error) {
	inputs, sheetRows, parseErrs, err := parseProductSheet(r)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		if len(parseErrs) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no importable rows in sheet")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sheet has no data rows")
	}

	result, err := s.products.BatchCreateProducts(ctx, inputs)
	if err != nil {
		return nil, err
	}

	// Batch errors index the filtered slice; map them back to sheet rows
	// before merging with the parse failures.
	for _, batchErr := range result.Errors {
		if batchErr.Row >= 1 && batchErr.Row <= len(sheetRows) {
			batchErr.Row = sheetRows[batchErr.Row-1]
		}
		parseErrs = append(parseErrs, batchErr)
	}
	result.Errors = parseErrs
	return result, nil
}

func (s *service) ImportUsers(ctx context.Context, r io.Reader) ([]users.UserView, error) {
	inputs, err := parseUserSheet(r)
	if err != nil {
		return nil, err
	}
	return s.users.CreateBatch(ctx, inputs)
}

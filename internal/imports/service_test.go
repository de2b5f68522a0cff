package imports

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/orderdeskhq/orderdesk-backend/internal/catalog"
	"github.com/orderdeskhq/orderdesk-backend/internal/users"
	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

type stubProductBatcher struct {
	inputs []catalog.CreateProductInput
	result *catalog.BatchProductResult
	err    error
}

func (s *stubProductBatcher) BatchCreateProducts(ctx context.Context, inputs []catalog.CreateProductInput) (*catalog.BatchProductResult, error) {
	s.inputs = inputs
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	created := make([]models.Product, len(inputs))
	return &catalog.BatchProductResult{Created: created}, nil
}

type stubUserBatcher struct {
	inputs []users.CreateUserInput
	err    error
}

func (s *stubUserBatcher) CreateBatch(ctx context.Context, inputs []users.CreateUserInput) ([]users.UserView, error) {
	s.inputs = inputs
	if s.err != nil {
		return nil, s.err
	}
	views := make([]users.UserView, len(inputs))
	return views, nil
}

func buildSheet(t *testing.T, headers []string, rows [][]any) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headerRow))
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func newImportService(t *testing.T, products ProductBatcher, userBatch UserBatcher) Service {
	t.Helper()
	svc, err := NewService(products, userBatch)
	require.NoError(t, err)
	return svc
}

func TestImportProductsSkipsBadRows(t *testing.T) {
	products := &stubProductBatcher{}
	svc := newImportService(t, products, &stubUserBatcher{})

	sheet := buildSheet(t, productHeaders, [][]any{
		{"One", "1.50", "https://img.example/one.jpg", "piece"},
		{"Two", "not-a-price", "", ""},
		{"Three", "3", "", "box"},
	})

	result, err := svc.ImportProducts(context.Background(), sheet)
	require.NoError(t, err)

	require.Len(t, products.inputs, 2, "only parseable rows reach the batch")
	assert.Equal(t, "One", products.inputs[0].Name)
	require.Len(t, products.inputs[0].Images, 1)
	require.NotNil(t, products.inputs[1].Unit)
	assert.Equal(t, "box", *products.inputs[1].Unit)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row, "errors carry the sheet row number")
}

func TestImportProductsRemapsBatchErrorRows(t *testing.T) {
	products := &stubProductBatcher{
		result: &catalog.BatchProductResult{
			Created: []models.Product{{}},
			Errors:  []catalog.BatchRowError{{Row: 2, Err: "product name required"}},
		},
	}
	svc := newImportService(t, products, &stubUserBatcher{})

	sheet := buildSheet(t, productHeaders, [][]any{
		{"One", "1", "", ""},
		{"Bad Price", "abc", "", ""},
		{"", "3", "", ""},
	})

	result, err := svc.ImportProducts(context.Background(), sheet)
	require.NoError(t, err)

	rowsSeen := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rowsSeen = append(rowsSeen, e.Row)
	}
	assert.ElementsMatch(t, []int{3, 4}, rowsSeen)
}

func TestImportProductsHeaderMismatch(t *testing.T) {
	svc := newImportService(t, &stubProductBatcher{}, &stubUserBatcher{})

	sheet := buildSheet(t, []string{"Name", "Price"}, [][]any{{"One", "1"}})
	_, err := svc.ImportProducts(context.Background(), sheet)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestImportProductsEmptySheet(t *testing.T) {
	svc := newImportService(t, &stubProductBatcher{}, &stubUserBatcher{})

	sheet := buildSheet(t, productHeaders, nil)
	_, err := svc.ImportProducts(context.Background(), sheet)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestImportUsers(t *testing.T) {
	userBatch := &stubUserBatcher{}
	svc := newImportService(t, &stubProductBatcher{}, userBatch)

	sheet := buildSheet(t, userHeaders, [][]any{
		{"jdoe", "Jordan Doe", "staff", "1234", "yes"},
		{"asmith", "Alex Smith", "accounting", "5678", "false"},
		{"boss", "Big Boss", "admin", "9999", ""},
	})

	views, err := svc.ImportUsers(context.Background(), sheet)
	require.NoError(t, err)
	assert.Len(t, views, 3)

	require.Len(t, userBatch.inputs, 3)
	assert.Equal(t, enums.RoleStaff, userBatch.inputs[0].Role)
	require.NotNil(t, userBatch.inputs[0].Active)
	assert.True(t, *userBatch.inputs[0].Active)
	require.NotNil(t, userBatch.inputs[1].Active)
	assert.False(t, *userBatch.inputs[1].Active)
	assert.Nil(t, userBatch.inputs[2].Active, "blank active defaults at the service layer")
}

func TestImportUsersRejectsBadRole(t *testing.T) {
	svc := newImportService(t, &stubProductBatcher{}, &stubUserBatcher{})

	sheet := buildSheet(t, userHeaders, [][]any{
		{"jdoe", "Jordan Doe", "boss", "1234", "yes"},
	})
	_, err := svc.ImportUsers(context.Background(), sheet)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "row 2")
}

func TestTemplates(t *testing.T) {
	svc := newImportService(t, &stubProductBatcher{}, &stubUserBatcher{})

	productBytes, err := svc.ProductTemplate()
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(productBytes))
	require.NoError(t, err)
	rows, err := f.GetRows(productSheetName)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Len(t, rows, 2, "header plus one sample row")
	assert.Equal(t, "Product Name", rows[0][0])

	userBytes, err := svc.UserTemplate()
	require.NoError(t, err)
	uf, err := excelize.OpenReader(bytes.NewReader(userBytes))
	require.NoError(t, err)
	urows, err := uf.GetRows(userSheetName)
	require.NoError(t, err)
	require.NoError(t, uf.Close())
	require.Len(t, urows, 2)
	assert.Equal(t, "Username", urows[0][0])
	assert.Equal(t, "jdoe", urows[1][0])
}

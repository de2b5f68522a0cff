package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	"github.com/orderdeskhq/orderdesk-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_no TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'draft',
  items TEXT NOT NULL,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  vat NUMERIC NOT NULL DEFAULT 0,
  computed_total NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  total_overridden INTEGER NOT NULL DEFAULT 0,
  customer_info TEXT,
  attachments TEXT,
  created_by TEXT NOT NULL,
  verified_by TEXT,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, orderNo string, status enums.OrderStatus, createdBy uuid.UUID, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:      uuid.New(),
		OrderNo: orderNo,
		Status:  status,
		Items: types.OrderItems{
			{ProductID: uuid.New(), Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("100")},
		},
		Subtotal:      decimal.RequireFromString("200"),
		VAT:           decimal.RequireFromString("14"),
		ComputedTotal: decimal.RequireFromString("214"),
		Total:         decimal.RequireFromString("214"),
		CustomerInfo:  types.CustomerInfo{CustomerName: "Ann Customer", Phone: "555-0100"},
		Attachments:   types.Attachments{},
		CreatedBy:     createdBy,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAssignsID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created, err := repo.Create(context.Background(), &models.Order{
		OrderNo: "ORD-000001",
		Status:  enums.OrderStatusDraft,
		Items: types.OrderItems{
			{ProductID: uuid.New(), Name: "Widget", Quantity: 1, UnitPrice: decimal.RequireFromString("50")},
		},
		Subtotal:      decimal.RequireFromString("50"),
		VAT:           decimal.RequireFromString("3.5"),
		ComputedTotal: decimal.RequireFromString("53.5"),
		Total:         decimal.RequireFromString("53.5"),
		CustomerInfo:  types.CustomerInfo{CustomerName: "Bob"},
		Attachments:   types.Attachments{},
		CreatedBy:     uuid.New(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-000001", loaded.OrderNo)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Widget", loaded.Items[0].Name)
	assert.Equal(t, "Bob", loaded.CustomerInfo.CustomerName)
	assert.True(t, loaded.Total.Equal(decimal.RequireFromString("53.5")))
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	staff := uuid.New()
	now := time.Now().UTC()
	seedOrder(t, db, "ORD-000001", enums.OrderStatusSubmitted, staff, now.Add(-time.Hour))
	newest := seedOrder(t, db, "ORD-000002", enums.OrderStatusSubmitted, staff, now)

	rows, cursor, err := repo.List(context.Background(), listOrdersParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newest.OrderNo, rows[0].OrderNo)
	require.NotNil(t, cursor)

	rest, next, err := repo.List(context.Background(), listOrdersParams{Limit: 1, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "ORD-000001", rest[0].OrderNo)
	assert.Nil(t, next)
}

func TestRepositoryList_filters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	alice := uuid.New()
	bob := uuid.New()
	now := time.Now().UTC()
	seedOrder(t, db, "ORD-000001", enums.OrderStatusDraft, alice, now.Add(-2*time.Hour))
	seedOrder(t, db, "ORD-000002", enums.OrderStatusSubmitted, alice, now.Add(-time.Hour))
	seedOrder(t, db, "ORD-000003", enums.OrderStatusSubmitted, bob, now)

	submitted := enums.OrderStatusSubmitted
	rows, _, err := repo.List(context.Background(), listOrdersParams{Limit: 10, Status: &submitted})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, _, err = repo.List(context.Background(), listOrdersParams{Limit: 10, CreatedBy: &alice})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	from := now.Add(-90 * time.Minute)
	to := now.Add(-30 * time.Minute)
	rows, _, err = repo.List(context.Background(), listOrdersParams{Limit: 10, CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ORD-000002", rows[0].OrderNo)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := seedOrder(t, db, "ORD-000001", enums.OrderStatusSubmitted, uuid.New(), time.Now().UTC())
	verifier := uuid.New()
	now := time.Now().UTC()

	err := repo.Update(context.Background(), order.ID, map[string]any{
		"status":      enums.OrderStatusVerified,
		"verified_by": verifier,
		"verified_at": now,
	})
	require.NoError(t, err)

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusVerified, loaded.Status)
	require.NotNil(t, loaded.VerifiedBy)
	assert.Equal(t, verifier, *loaded.VerifiedBy)
	require.NotNil(t, loaded.VerifiedAt)
}

func TestRepositoryCountByCreator(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	staff := uuid.New()
	now := time.Now().UTC()
	seedOrder(t, db, "ORD-000001", enums.OrderStatusDraft, staff, now.Add(-time.Minute))
	seedOrder(t, db, "ORD-000002", enums.OrderStatusSubmitted, staff, now)

	count, err := repo.CountByCreator(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByCreator(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, count)
}

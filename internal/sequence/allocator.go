package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

// OrderNoCounter is the counters row backing order numbers.
const OrderNoCounter = "order_no"

// Allocator hands out formatted order numbers from the counters table.
// Next must run inside the caller's transaction so the row lock taken by
// the increment holds until the order row commits with it.
type Allocator struct {
	prefix string
	digits int
}

// NewAllocator builds an allocator from the policy configuration.
func NewAllocator(cfg config.PolicyConfig) *Allocator {
	digits := cfg.OrderNoDigits
	if digits <= 0 {
		digits = 6
	}
	return &Allocator{prefix: cfg.OrderNoPrefix, digits: digits}
}

// Next increments the counter and returns the formatted order number.
func (a *Allocator) Next(ctx context.Context, tx *gorm.DB) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "transaction required for order number allocation")
	}

	res := tx.WithContext(ctx).
		Model(&models.Counter{}).
		Where("name = ?", OrderNoCounter).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment order counter")
	}
	if res.RowsAffected == 0 {
		if err := tx.WithContext(ctx).Create(&models.Counter{Name: OrderNoCounter, Value: 1}).Error; err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed order counter")
		}
	}

	var counter models.Counter
	if err := tx.WithContext(ctx).Where("name = ?", OrderNoCounter).Take(&counter).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order counter")
	}

	return a.Format(counter.Value), nil
}

// Format renders a counter value as an order number.
func (a *Allocator) Format(value int64) string {
	return fmt.Sprintf("%s-%0*d", a.prefix, a.digits, value)
}

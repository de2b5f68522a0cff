package models

// Counter backs monotonically increasing sequences such as order numbers.
// Rows are incremented inside the caller's transaction.
type Counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

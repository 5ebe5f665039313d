package models

import "time"

// CartLine persists one LineIntent of a tenant's cart. Position preserves insertion order.
type CartLine struct {
	Namespace string    `gorm:"column:namespace;primaryKey"`
	TenantID  string    `gorm:"column:tenant_id;primaryKey"`
	Position  int       `gorm:"column:position;primaryKey"`
	ProductID string    `gorm:"column:product_id;not null"`
	Color     *string   `gorm:"column:color"`
	Size      *string   `gorm:"column:size"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by migrations.
func (CartLine) TableName() string {
	return "cart_lines"
}

package cartstore

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"gorm.io/gorm"
)

// GormStore persists carts as rows of cart_lines, one row per line intent.
type GormStore struct {
	db        *gorm.DB
	namespace string
}

// NewGormStore binds the store to the provided DB and namespace.
func NewGormStore(db *gorm.DB, namespace string) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &GormStore{db: db, namespace: namespaceOrDefault(namespace)}, nil
}

// Get loads the tenant's rows ordered by position.
func (s *GormStore) Get(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	var rows []models.CartLine
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND tenant_id = ?", s.namespace, tenantID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]lineitem.LineIntent, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lineitem.LineIntent{
			ProductID: row.ProductID,
			Variant:   lineitem.Variant{Color: row.Color, Size: row.Size},
			Quantity:  row.Quantity,
		})
	}
	return lines, nil
}

// Put deletes the tenant's rows and inserts the new sequence in one transaction.
func (s *GormStore) Put(ctx context.Context, tenantID string, lines []lineitem.LineIntent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("namespace = ? AND tenant_id = ?", s.namespace, tenantID).
			Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		rows := make([]models.CartLine, 0, len(lines))
		for i, line := range lineitem.Clone(lines) {
			rows = append(rows, models.CartLine{
				Namespace: s.namespace,
				TenantID:  tenantID,
				Position:  i,
				ProductID: line.ProductID,
				Color:     line.Variant.Color,
				Size:      line.Variant.Size,
				Quantity:  line.Quantity,
			})
		}
		return tx.Create(&rows).Error
	})
}

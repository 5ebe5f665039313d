// Package cartstore persists each tenant's ordered sequence of line intents.
package cartstore

import (
	"context"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
)

// Store is a whole-sequence key-value store keyed by tenant.
type Store interface {
	// Get returns the tenant's lines in insertion order, or an empty slice.
	Get(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error)
	// Put replaces the tenant's whole sequence.
	Put(ctx context.Context, tenantID string, lines []lineitem.LineIntent) error
}

// DefaultNamespace scopes rows and hash keys when no namespace is configured.
const DefaultNamespace = "default"

func namespaceOrDefault(namespace string) string {
	if namespace == "" {
		return DefaultNamespace
	}
	return namespace
}

// Package cart exposes the tenant cart operations: every mutation is a
// read-modify-write of the whole persisted sequence under a per-tenant lock.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/cartstore"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/internal/stock"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

type productFetcher interface {
	Product(ctx context.Context, productID string) (catalog.ProductSnapshot, error)
}

type hydrator interface {
	Hydrate(ctx context.Context, lines []lineitem.LineIntent) (catalog.Result, error)
}

// Service is the cart API consumed by HTTP handlers and checkout.
type Service interface {
	AddOrIncrement(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (Mutation, error)
	SetLineQuantity(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (Mutation, error)
	RemoveLine(ctx context.Context, tenantID, productID string, variant lineitem.Variant) (Mutation, error)
	ClearCart(ctx context.Context, tenantID string) (Mutation, error)
	ClearLines(ctx context.Context, tenantID string, keys []lineitem.Key) error
	GetHydratedCart(ctx context.Context, tenantID string) (View, error)
	PruneUnresolved(ctx context.Context, tenantID string) (Mutation, error)
	Lines(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error)
}

// Mutation is the cart after a write plus any notices raised on the way.
type Mutation struct {
	Lines   []lineitem.LineIntent `json:"lines"`
	Removed []lineitem.LineIntent `json:"removed,omitempty"`
	Notices []types.Notice        `json:"notices,omitempty"`
}

// View is the hydrated cart for display.
type View struct {
	TenantID   string                   `json:"tenantId"`
	Lines      []catalog.HydratedLine   `json:"lines"`
	Unresolved []catalog.UnresolvedLine `json:"unresolved"`
	Notices    []types.Notice           `json:"notices,omitempty"`
}

type service struct {
	store    cartstore.Store
	products productFetcher
	hydrator hydrator
	logg     *logger.Logger
	locks    sync.Map
}

// NewService builds the cart service.
func NewService(store cartstore.Store, products productFetcher, hydrator hydrator, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product fetcher required")
	}
	if hydrator == nil {
		return nil, fmt.Errorf("hydrator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, products: products, hydrator: hydrator, logg: logg}, nil
}

// AddOrIncrement adds quantity of the variant, merging into an existing line.
// The resulting line quantity is guarded against the variant's stock.
func (s *service) AddOrIncrement(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (Mutation, error) {
	incoming := lineitem.LineIntent{ProductID: strings.TrimSpace(productID), Variant: variant, Quantity: quantity}
	if err := validateTenant(tenantID); err != nil {
		return Mutation{}, err
	}
	if err := lineitem.Validate(incoming); err != nil {
		return Mutation{}, err
	}

	product, ceiling, err := s.purchasable(ctx, incoming.ProductID, variant)
	if err != nil {
		return Mutation{}, err
	}

	return s.mutate(ctx, tenantID, func(lines []lineitem.LineIntent, m *Mutation) ([]lineitem.LineIntent, error) {
		merged := lineitem.Merge(lines, incoming)
		key := incoming.Key()
		line, _ := lineitem.Find(merged, key)
		applied, notice := stock.Guard(product.ID, line.Quantity, ceiling)
		if notice != nil {
			m.Notices = append(m.Notices, *notice)
		}
		return lineitem.SetQuantity(merged, key, applied), nil
	})
}

// SetLineQuantity overwrites the quantity of an existing line after clamping
// it to [1, stock].
func (s *service) SetLineQuantity(ctx context.Context, tenantID, productID string, variant lineitem.Variant, quantity int) (Mutation, error) {
	if err := validateTenant(tenantID); err != nil {
		return Mutation{}, err
	}
	key := lineitem.KeyOf(strings.TrimSpace(productID), variant)

	product, ceiling, err := s.purchasable(ctx, key.ProductID, variant)
	if err != nil {
		return Mutation{}, err
	}

	return s.mutate(ctx, tenantID, func(lines []lineitem.LineIntent, m *Mutation) ([]lineitem.LineIntent, error) {
		if _, ok := lineitem.Find(lines, key); !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
				WithDetails(map[string]string{"productId": key.ProductID})
		}
		applied, notice := stock.Guard(product.ID, quantity, ceiling)
		if notice != nil {
			m.Notices = append(m.Notices, *notice)
		}
		return lineitem.SetQuantity(lines, key, applied), nil
	})
}

// RemoveLine drops the exact variant line. Removing a missing line is a no-op.
func (s *service) RemoveLine(ctx context.Context, tenantID, productID string, variant lineitem.Variant) (Mutation, error) {
	if err := validateTenant(tenantID); err != nil {
		return Mutation{}, err
	}
	key := lineitem.KeyOf(strings.TrimSpace(productID), variant)
	return s.mutate(ctx, tenantID, func(lines []lineitem.LineIntent, m *Mutation) ([]lineitem.LineIntent, error) {
		if line, ok := lineitem.Find(lines, key); ok {
			m.Removed = append(m.Removed, line)
		}
		return lineitem.Remove(lines, key), nil
	})
}

// ClearCart empties the tenant's cart.
func (s *service) ClearCart(ctx context.Context, tenantID string) (Mutation, error) {
	if err := validateTenant(tenantID); err != nil {
		return Mutation{}, err
	}
	return s.mutate(ctx, tenantID, func(lines []lineitem.LineIntent, m *Mutation) ([]lineitem.LineIntent, error) {
		m.Removed = lines
		return []lineitem.LineIntent{}, nil
	})
}

// ClearLines removes the given keys, as done after a cart checkout succeeds.
// A storage failure is returned as a non-fatal StorageUnavailable error.
func (s *service) ClearLines(ctx context.Context, tenantID string, keys []lineitem.Key) error {
	if err := validateTenant(tenantID); err != nil {
		return err
	}
	unlock := s.lock(tenantID)
	defer unlock()

	lines, err := s.store.Get(ctx, tenantID)
	if err != nil && pkgerrors.IsFatal(err) {
		return err
	}
	for _, key := range keys {
		lines = lineitem.Remove(lines, key)
	}
	return s.store.Put(ctx, tenantID, lines)
}

// GetHydratedCart projects the stored cart through the catalog. Unresolved
// lines are listed separately and stay in storage.
func (s *service) GetHydratedCart(ctx context.Context, tenantID string) (View, error) {
	if err := validateTenant(tenantID); err != nil {
		return View{}, err
	}
	var notices []types.Notice

	lines, err := s.store.Get(ctx, tenantID)
	if err != nil {
		if pkgerrors.IsFatal(err) {
			return View{}, err
		}
		notices = append(notices, storageNotice())
	}

	result, err := s.hydrator.Hydrate(ctx, lines)
	if err != nil {
		return View{}, err
	}
	for _, line := range result.Unresolved {
		notices = append(notices, types.Notice{
			Type:      enums.NoticeTypeProductUnresolved,
			ProductID: line.ProductID,
			Message:   "product is no longer available",
		})
	}

	return View{
		TenantID:   tenantID,
		Lines:      result.Lines,
		Unresolved: result.Unresolved,
		Notices:    notices,
	}, nil
}

// PruneUnresolved deletes intents whose products currently fail to resolve.
func (s *service) PruneUnresolved(ctx context.Context, tenantID string) (Mutation, error) {
	if err := validateTenant(tenantID); err != nil {
		return Mutation{}, err
	}
	return s.mutate(ctx, tenantID, func(lines []lineitem.LineIntent, m *Mutation) ([]lineitem.LineIntent, error) {
		result, err := s.hydrator.Hydrate(ctx, lines)
		if err != nil {
			return nil, err
		}
		for _, line := range result.Unresolved {
			lines = lineitem.Remove(lines, line.Key())
			m.Removed = append(m.Removed, line.LineIntent)
		}
		return lines, nil
	})
}

// Lines returns the raw stored intents.
func (s *service) Lines(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	if err := validateTenant(tenantID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID)
}

// mutate runs fn against the latest stored sequence while holding the tenant
// lock, then persists the result.
func (s *service) mutate(ctx context.Context, tenantID string, fn func([]lineitem.LineIntent, *Mutation) ([]lineitem.LineIntent, error)) (Mutation, error) {
	ctx = s.logg.WithTenant(ctx, tenantID)
	unlock := s.lock(tenantID)
	defer unlock()

	var m Mutation
	lines, err := s.store.Get(ctx, tenantID)
	if err != nil {
		if pkgerrors.IsFatal(err) {
			return Mutation{}, err
		}
		m.Notices = append(m.Notices, storageNotice())
	}

	next, err := fn(lines, &m)
	if err != nil {
		return Mutation{}, err
	}

	if err := s.store.Put(ctx, tenantID, next); err != nil {
		if pkgerrors.IsFatal(err) {
			s.logg.Error(ctx, "failed to persist cart", err)
			return Mutation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
		}
		m.Notices = appendStorageNotice(m.Notices)
	}
	m.Lines = next
	return m, nil
}

func (s *service) purchasable(ctx context.Context, productID string, variant lineitem.Variant) (catalog.ProductSnapshot, int, error) {
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return catalog.ProductSnapshot{}, 0, err
	}
	if !product.SupportsVariant(variant) {
		return catalog.ProductSnapshot{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "variant is not offered for this product").
			WithDetails(map[string]any{"productId": productID, "variants": product.Variants})
	}
	ceiling := product.CeilingFor(variant)
	if ceiling < stock.MinQuantity {
		return catalog.ProductSnapshot{}, 0, pkgerrors.New(pkgerrors.CodeStockExceeded, "product is out of stock").
			WithDetails(map[string]string{"productId": productID})
	}
	return product, ceiling, nil
}

func (s *service) lock(tenantID string) func() {
	mu, _ := s.locks.LoadOrStore(tenantID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func storageNotice() types.Notice {
	return types.Notice{
		Type:    enums.NoticeTypeStorageUnavailable,
		Message: pkgerrors.MetadataFor(pkgerrors.CodeStorageUnavailable).PublicMessage,
	}
}

func appendStorageNotice(notices []types.Notice) []types.Notice {
	for _, n := range notices {
		if n.Type == enums.NoticeTypeStorageUnavailable {
			return notices
		}
	}
	return append(notices, storageNotice())
}

func validateTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store code is required")
	}
	return nil
}

package cartdto

// LineRequest carries an add or set-quantity mutation.
type LineRequest struct {
	ProductID string  `json:"productId" validate:"required,max=128"`
	Color     *string `json:"color,omitempty" validate:"omitempty,max=64"`
	Size      *string `json:"size,omitempty" validate:"omitempty,max=64"`
	Quantity  int     `json:"quantity" validate:"min=1,max=10000"`
}

// SetQuantityRequest differs from LineRequest only in accepting any quantity;
// the service clamps it to the available stock.
type SetQuantityRequest struct {
	ProductID string  `json:"productId" validate:"required,max=128"`
	Color     *string `json:"color,omitempty" validate:"omitempty,max=64"`
	Size      *string `json:"size,omitempty" validate:"omitempty,max=64"`
	Quantity  int     `json:"quantity"`
}

// RemoveLineRequest identifies the exact variant line to drop.
type RemoveLineRequest struct {
	ProductID string  `json:"productId" validate:"required,max=128"`
	Color     *string `json:"color,omitempty"`
	Size      *string `json:"size,omitempty"`
}

package checkout

import (
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// Selection is what a checkout surface is buying: the whole tenant cart or a
// single ad-hoc "buy now" line that never touches the cart store.
type Selection struct {
	mode  enums.CheckoutMode
	lines []lineitem.LineIntent
}

// FromCart selects the full current cart.
func FromCart(lines []lineitem.LineIntent) Selection {
	return Selection{mode: enums.CheckoutModeCart, lines: lineitem.Clone(lines)}
}

// AdHoc selects one ephemeral line.
func AdHoc(line lineitem.LineIntent) Selection {
	return Selection{mode: enums.CheckoutModeAdHoc, lines: lineitem.Clone([]lineitem.LineIntent{line})}
}

func (s Selection) Mode() enums.CheckoutMode {
	return s.mode
}

func (s Selection) Lines() []lineitem.LineIntent {
	return lineitem.Clone(s.lines)
}

func (s Selection) Empty() bool {
	return len(s.lines) == 0
}

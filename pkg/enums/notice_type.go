package enums

import "fmt"

// NoticeType enumerates non-blocking notices attached to cart mutations and listings.
type NoticeType string

const (
	NoticeTypeStockExceeded      NoticeType = "stock_exceeded"
	NoticeTypeClampedToMin       NoticeType = "clamped_to_min"
	NoticeTypeProductUnresolved  NoticeType = "product_unresolved"
	NoticeTypeStorageUnavailable NoticeType = "storage_unavailable"
)

var validNoticeTypes = []NoticeType{
	NoticeTypeStockExceeded,
	NoticeTypeClampedToMin,
	NoticeTypeProductUnresolved,
	NoticeTypeStorageUnavailable,
}

// String implements fmt.Stringer.
func (n NoticeType) String() string {
	return string(n)
}

// IsValid reports whether the value is known.
func (n NoticeType) IsValid() bool {
	for _, candidate := range validNoticeTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNoticeType converts raw input into a NoticeType.
func ParseNoticeType(value string) (NoticeType, error) {
	for _, candidate := range validNoticeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notice type %q", value)
}

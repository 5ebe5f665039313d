package enums

import "fmt"

// SurfaceState tracks where a checkout surface is in the quote/submit lifecycle.
type SurfaceState string

const (
	SurfaceStateIdle         SurfaceState = "idle"
	SurfaceStateQuoting      SurfaceState = "quoting"
	SurfaceStateQuoted       SurfaceState = "quoted"
	SurfaceStateQuoteFailed  SurfaceState = "quote_failed"
	SurfaceStateSubmitting   SurfaceState = "submitting"
	SurfaceStateSubmitted    SurfaceState = "submitted"
	SurfaceStateSubmitFailed SurfaceState = "submit_failed"
	SurfaceStateClosed       SurfaceState = "closed"
)

var validSurfaceStates = []SurfaceState{
	SurfaceStateIdle,
	SurfaceStateQuoting,
	SurfaceStateQuoted,
	SurfaceStateQuoteFailed,
	SurfaceStateSubmitting,
	SurfaceStateSubmitted,
	SurfaceStateSubmitFailed,
	SurfaceStateClosed,
}

// String implements fmt.Stringer.
func (s SurfaceState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SurfaceState.
func (s SurfaceState) IsValid() bool {
	for _, candidate := range validSurfaceStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanQuote reports whether a new quote may be requested from this state.
func (s SurfaceState) CanQuote() bool {
	switch s {
	case SurfaceStateSubmitting, SurfaceStateSubmitted, SurfaceStateClosed:
		return false
	}
	return true
}

// ParseSurfaceState converts raw input into a SurfaceState.
func ParseSurfaceState(value string) (SurfaceState, error) {
	for _, candidate := range validSurfaceStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid surface state %q", value)
}

package billing

import (
	"errors"
	"strings"
)

// Mode classifies how an order is fulfilled.
type Mode string

const (
	ModeDineIn   Mode = "DINE_IN"
	ModeTakeAway Mode = "TAKE_AWAY"
	ModeDelivery Mode = "DELIVERY"
)

// ErrInvalidMode is returned for an unrecognised order mode.
var ErrInvalidMode = errors.New("billing: invalid order mode")

// ParseMode normalises the free-text mode spellings found in legacy data
// ("Dine-In", "Dine-in", "take away", ...) into the closed enumeration.
func ParseMode(s string) (Mode, error) {
	normalized := strings.ToLower(s)
	for _, r := range []string{" ", "-", "_"} {
		normalized = strings.ReplaceAll(normalized, r, "")
	}
	switch normalized {
	case "dinein":
		return ModeDineIn, nil
	case "takeaway":
		return ModeTakeAway, nil
	case "delivery":
		return ModeDelivery, nil
	default:
		return "", ErrInvalidMode
	}
}

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	switch m {
	case ModeDineIn, ModeTakeAway, ModeDelivery:
		return true
	default:
		return false
	}
}

package identity

import (
	"fmt"
	"math/rand"
	"strings"

	"soulstar.klederson.com/internal/led"
)

// Identity is the immutable per-badge record loaded once at boot. The
// DisplayName is diagnostic only and never goes on the wire.
type Identity struct {
	ID          uint32
	DisplayName string
	Color       led.RGB
}

// Provision builds the badge identity from boot parameters. An id of zero
// asks for a randomly assigned one, matching unprovisioned badges fresh from
// flashing.
func Provision(id uint32, name, colorHex string) (Identity, error) {
	color, err := ParseColor(colorHex)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid badge color %q: %w", colorHex, err)
	}
	if id == 0 {
		id = rand.Uint32()
		if id == 0 {
			id = 1
		}
	}
	if name == "" {
		name = fmt.Sprintf("soul-%08X", id)
	}
	return Identity{ID: id, DisplayName: name, Color: color}, nil
}

// ParseColor parses a "#RRGGBB" (or "RRGGBB") hex triple.
func ParseColor(s string) (led.RGB, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return led.RGB{}, fmt.Errorf("want 6 hex digits, got %d", len(s))
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return led.RGB{}, err
	}
	return led.RGB{R: r, G: g, B: b}, nil
}

// String renders the identity for diagnostics.
func (i Identity) String() string {
	return fmt.Sprintf("%s (#%08X %02X%02X%02X)",
		i.DisplayName, i.ID, i.Color.R, i.Color.G, i.Color.B)
}

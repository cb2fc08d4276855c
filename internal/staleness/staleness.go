// Package staleness maps the time since a building was last prospected to a
// color band for the map.
package staleness

import (
	"fmt"
	"math"
	"time"
)

// Band is a staleness tier.
type Band int

const (
	Unvisited Band = iota
	Fresh
	Aging
	Stale
	VeryStale
	Expired
)

const day = 24 * time.Hour

// Style is what the renderer applies to a building polygon.
type Style struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fill_opacity"`
}

var bandNames = [...]string{
	Unvisited: "unvisited",
	Fresh:     "fresh",
	Aging:     "aging",
	Stale:     "stale",
	VeryStale: "very_stale",
	Expired:   "expired",
}

var bandColors = [...]string{
	Unvisited: "#888",
	Fresh:     "green",
	Aging:     "yellow",
	Stale:     "orange",
	VeryStale: "red",
	Expired:   "black",
}

// Classify returns the band for a building last visited at visitedAt.
// A nil visitedAt means the building was never prospected. Elapsed time is
// counted in whole days, rounded down; each threshold belongs to the staler band.
func Classify(visitedAt *time.Time, now time.Time) Band {
	if visitedAt == nil {
		return Unvisited
	}

	days := math.Floor(float64(now.Sub(*visitedAt)) / float64(day))
	switch {
	case days < 7:
		return Fresh
	case days < 14:
		return Aging
	case days < 30:
		return Stale
	case days < 90:
		return VeryStale
	default:
		return Expired
	}
}

func (b Band) valid() bool {
	return b >= Unvisited && b <= Expired
}

func (b Band) String() string {
	if !b.valid() {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandNames[b]
}

// Color is the stroke color token understood by the map renderer.
func (b Band) Color() string {
	if !b.valid() {
		return bandColors[Unvisited]
	}
	return bandColors[b]
}

// Style returns the full polygon style for the band.
func (b Band) Style() Style {
	return Style{Color: b.Color(), Weight: 1, FillOpacity: 0.4}
}

func (b Band) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("invalid band %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	for i, name := range bandNames {
		if name == string(text) {
			*b = Band(i)
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", text)
}

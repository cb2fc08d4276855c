package harvest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// TileStatus moves Pending -> Succeeded or Pending -> FailedExhausted, once.
type TileStatus int

const (
	Pending TileStatus = iota
	Succeeded
	FailedExhausted
)

func (s TileStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case FailedExhausted:
		return "failed_exhausted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s TileStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Tile is one grid cell of a harvest run. Bounds.Min is the (lon, lat) corner
// the cell starts at; the cell covers [lat, lat+step) x [lon, lon+step).
type Tile struct {
	Row      int        `json:"row"`
	Col      int        `json:"col"`
	Bounds   orb.Bound  `json:"-"`
	Status   TileStatus `json:"status"`
	Attempts int        `json:"attempts"`
}

// South, West, North, East give the tile edges in degrees.
func (t Tile) South() float64 { return t.Bounds.Min.Lat() }
func (t Tile) West() float64  { return t.Bounds.Min.Lon() }
func (t Tile) North() float64 { return t.Bounds.Max.Lat() }
func (t Tile) East() float64  { return t.Bounds.Max.Lon() }

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d) %.4f,%.4f", t.Row, t.Col, t.South(), t.West())
}

// resolve moves a pending tile to its final status. Finished tiles never change.
func (t *Tile) resolve(ok bool) {
	if t.Status != Pending {
		return
	}
	if ok {
		t.Status = Succeeded
	} else {
		t.Status = FailedExhausted
	}
}

// Partition cuts bbox into a row-major grid of step x step tiles, rows going
// north from the southern edge and columns east from the western edge. The
// last row and column may overhang bbox.
func Partition(bbox orb.Bound, step float64) ([]Tile, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step must be positive, got %v", ErrInvalidGrid, step)
	}
	rows := cells(bbox.Min.Lat(), bbox.Max.Lat(), step)
	cols := cells(bbox.Min.Lon(), bbox.Max.Lon(), step)
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty bounding box", ErrInvalidGrid)
	}

	tiles := make([]Tile, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := bbox.Min.Lat() + float64(r)*step
		for c := 0; c < cols; c++ {
			lon := bbox.Min.Lon() + float64(c)*step
			tiles = append(tiles, Tile{
				Row: r,
				Col: c,
				Bounds: orb.Bound{
					Min: orb.Point{lon, lat},
					Max: orb.Point{lon + step, lat + step},
				},
			})
		}
	}
	return tiles, nil
}

// cells counts the steps needed to cover [from, to). Indices are derived from
// integers so float drift never adds or drops a row.
func cells(from, to, step float64) int {
	span := to - from
	if span <= 0 {
		return 0
	}
	n := math.Ceil(span/step - 1e-9)
	return int(n)
}

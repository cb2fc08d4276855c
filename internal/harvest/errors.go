package harvest

import "errors"

var (
	// ErrTileFetchFailed marks one failed attempt on a tile; it is retried.
	ErrTileFetchFailed = errors.New("tile fetch failed")

	// ErrTileExhausted marks a tile that used all its attempts. The run
	// carries on and the tile lands in the failure manifest.
	ErrTileExhausted = errors.New("tile attempts exhausted")

	ErrInvalidGrid = errors.New("invalid harvest grid")
)

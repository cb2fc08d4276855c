package prospection

import "errors"

var (
	// ErrStoreUnavailable means the backend could not be read. Callers treat
	// it as "no data yet".
	ErrStoreUnavailable = errors.New("prospection store unavailable")

	// ErrSyncFailed means a write did not reach the store. Local state is
	// left untouched and the user has to retry.
	ErrSyncFailed = errors.New("prospection sync failed")

	ErrNoCategorySelected = errors.New("no prospection category selected")
	ErrDuplicateCategory  = errors.New("prospection category already exists")
	ErrInvalidCategory    = errors.New("invalid prospection category")
	ErrInvalidRecord      = errors.New("invalid prospection record")
)

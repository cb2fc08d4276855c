package prospection

import (
	"strings"
	"time"
)

// Record is the last prospection of one building. A new visit replaces the
// previous record entirely; no history is kept.
type Record struct {
	BuildingID   string    `gorm:"primaryKey;size:64" json:"building_id" validate:"required,max=64"`
	VisitedAt    time.Time `gorm:"not null" json:"visited_at" validate:"required"`
	MailboxCount *int      `json:"mailbox_count" validate:"omitempty,min=0"`
	EntryCode    *string   `gorm:"size:64" json:"entry_code" validate:"omitempty,max=64"`
	Notes        *string   `json:"notes" validate:"omitempty,max=2000"`
	CategoryID   *int      `gorm:"index" json:"category_id" validate:"omitempty,min=1"`
}

// Category is a user-defined kind of prospection (door-to-door, leaflets...).
type Category struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:120;not null;uniqueIndex:categories_name_key" json:"name"`
}

// VisitFields is what the field worker enters for a visit.
type VisitFields struct {
	// VisitedAt defaults to now when zero.
	VisitedAt    time.Time `json:"visited_at"`
	MailboxCount *int      `json:"mailbox_count"`
	EntryCode    *string   `json:"entry_code"`
	Notes        *string   `json:"notes"`
	CategoryID   *int      `json:"category_id"`
}

// clone returns a deep copy so callers never share pointers with the mirror
// or a store.
func (r Record) clone() Record {
	out := r
	if r.MailboxCount != nil {
		v := *r.MailboxCount
		out.MailboxCount = &v
	}
	out.EntryCode = cloneString(r.EntryCode)
	out.Notes = cloneString(r.Notes)
	if r.CategoryID != nil {
		v := *r.CategoryID
		out.CategoryID = &v
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// blankToNil trims s and drops it when empty; the forms submit "" for
// untouched inputs.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func sameCategory(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

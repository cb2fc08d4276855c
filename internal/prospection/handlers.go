package prospection

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/buildings"
	"github.com/EmpoweredVote/EV-Prospection/internal/staleness"
	"github.com/go-chi/chi/v5"
)

// Handlers serves the prospection API to the map.
type Handlers struct {
	Sync    *Sync
	Session *Session
	Dataset *buildings.Dataset
	Now     func() time.Time
}

func NewHandlers(s *Sync, session *Session, dataset *buildings.Dataset) *Handlers {
	return &Handlers{Sync: s, Session: session, Dataset: dataset, Now: time.Now}
}

type bandOut struct {
	Band staleness.Band `json:"band"`
	staleness.Style
}

type visitOut struct {
	BuildingID string  `json:"building_id"`
	Band       bandOut `json:"band"`
	Record     *Record `json:"record,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ensureLoaded retries the initial load when the store was unreachable.
// It reports whether the mirror is usable.
func (h *Handlers) ensureLoaded(r *http.Request) bool {
	if h.Sync.Ready() {
		return true
	}
	return h.Sync.Load(r.Context()) == nil
}

func (h *Handlers) band(id string) bandOut {
	b := h.Sync.CurrentBand(id, h.Now(), h.Session.State().FilterCategoryID)
	return bandOut{Band: b, Style: b.Style()}
}

func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(r) {
		w.Header().Set("X-Data-Status", "unready")
		writeJSON(w, http.StatusOK, []Record{})
		return
	}
	w.Header().Set("X-Data-Status", "ready")
	writeJSON(w, http.StatusOK, h.Sync.Records())
}

func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	if id == "" {
		http.Error(w, "Missing building id", http.StatusBadRequest)
		return
	}
	h.ensureLoaded(r)

	rec, ok := h.Sync.Record(id)
	if !ok {
		http.Error(w, "No prospection for "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, visitOut{BuildingID: id, Band: h.band(id), Record: &rec})
}

func (h *Handlers) RecordVisit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BuildingID   string  `json:"building_id"`
		VisitedAt    string  `json:"visited_at"`
		MailboxCount *int    `json:"mailbox_count"`
		EntryCode    *string `json:"entry_code"`
		Notes        *string `json:"notes"`
		CategoryID   *int    `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input.BuildingID = strings.TrimSpace(input.BuildingID)
	if input.BuildingID == "" {
		http.Error(w, "building_id is required", http.StatusBadRequest)
		return
	}

	visitedAt, err := parseVisitDate(input.VisitedAt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	categoryID := input.CategoryID
	if categoryID == nil {
		categoryID = h.Session.State().SelectedCategoryID
	}

	id, err := h.Sync.RecordVisit(r.Context(), input.BuildingID, VisitFields{
		VisitedAt:    visitedAt,
		MailboxCount: input.MailboxCount,
		EntryCode:    input.EntryCode,
		Notes:        input.Notes,
		CategoryID:   categoryID,
	})
	if err != nil {
		writeSyncError(w, err)
		return
	}

	rec, _ := h.Sync.Record(id)
	writeJSON(w, http.StatusOK, visitOut{BuildingID: id, Band: h.band(id), Record: &rec})
}

func (h *Handlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	if id == "" {
		http.Error(w, "Missing building id", http.StatusBadRequest)
		return
	}

	id, err := h.Sync.RemoveVisit(r.Context(), id)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visitOut{BuildingID: id, Band: h.band(id)})
}

// Bands returns the style of the requested buildings (ids=a,b,c), or of every
// building in the dataset. filter=<category id> overrides the session filter
// and filter= (empty) disables it.
func (h *Handlers) Bands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := h.Session.State().FilterCategoryID
	if _, set := q["filter"]; set {
		f, err := parseOptionalInt(q.Get("filter"))
		if err != nil {
			http.Error(w, "Invalid filter", http.StatusBadRequest)
			return
		}
		filter = f
	}

	var ids []string
	if raw := q.Get("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	} else if h.Dataset != nil {
		ids = h.Dataset.IDs()
	} else {
		ids = h.Sync.TrackedIDs()
	}

	if !h.ensureLoaded(r) {
		w.Header().Set("X-Data-Status", "unready")
	}

	bands := h.Sync.Recolor(ids, h.Now(), filter)
	out := make(map[string]bandOut, len(bands))
	for id, b := range bands {
		out[id] = bandOut{Band: b, Style: b.Style()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Buildings(w http.ResponseWriter, r *http.Request) {
	if h.Dataset == nil || h.Dataset.Collection == nil {
		http.Error(w, "Building dataset not loaded", http.StatusServiceUnavailable)
		return
	}
	data, err := h.Dataset.Collection.MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode buildings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Sync.Categories(r.Context())
	if err != nil {
		http.Error(w, "Categories unavailable, retry later", http.StatusServiceUnavailable)
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := h.Sync.CreateCategory(r.Context(), input.Name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, c)
	case errors.Is(err, ErrDuplicateCategory):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidCategory):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Failed to create category, retry later", http.StatusServiceUnavailable)
	}
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.State())
}

// UpdateSession replaces the session state. The response tells the map
// whether the filter changed and every building must be recolored.
func (h *Handlers) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var input SessionState
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.Session.SelectCategory(input.SelectedCategoryID)
	recolor := h.Session.SetFilter(input.FilterCategoryID)

	writeJSON(w, http.StatusOK, struct {
		SessionState
		Recolor bool `json:"recolor"`
	}{h.Session.State(), recolor})
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoCategorySelected):
		http.Error(w, "Select a prospection category first", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInvalidRecord):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSyncFailed):
		http.Error(w, "Save failed, please retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Unexpected error", http.StatusInternalServerError)
	}
}

// parseVisitDate accepts RFC 3339 timestamps and the bare dates sent by the
// edit form (midnight UTC). Empty means "now".
func parseVisitDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid visited_at %q", s)
}

func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

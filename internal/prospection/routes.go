package prospection

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListRecords)
	r.Post("/visit", h.RecordVisit)
	r.Get("/bands", h.Bands)
	r.Get("/buildings", h.Buildings)

	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)

	r.Get("/session", h.GetSession)
	r.Put("/session", h.UpdateSession)

	// Building ids contain slashes ("way/123").
	r.Get("/records/*", h.GetRecord)
	r.Delete("/records/*", h.DeleteRecord)

	return r
}

// Package httpapi serves the document-store HTTP API consumed by the
// POS terminal agents.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/dmitrijs2005/tillkeeper/internal/server/documents"
	"github.com/dmitrijs2005/tillkeeper/internal/server/staff"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	documents *documents.Service
	staff     *staff.Service
	jwtSecret []byte
	log       logging.Logger
}

func NewHandler(docs *documents.Service, staffService *staff.Service, jwtSecret []byte, log logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Handler{
		documents: docs,
		staff:     staffService,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

// Routes builds the router:
//
//	GET  /health
//	POST /api/v1/login
//	POST /api/v1/refresh
//	POST /api/v1/staff                              (auth, admin only)
//	GET  /api/v1/collections/{name}                 (auth)
//	POST /api/v1/collections/{name}/documents       (auth)
//	GET/PATCH/PUT/DELETE
//	     /api/v1/collections/{name}/documents/{id}  (auth)
//	POST /api/v1/batch                              (auth)
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.healthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)

			r.Post("/staff", h.register)
			r.Get("/collections/{name}", h.getCollection)
			r.Post("/collections/{name}/documents", h.addDocument)
			r.Get("/collections/{name}/documents/{id}", h.getDocument)
			r.Patch("/collections/{name}/documents/{id}", h.updateDocument)
			r.Put("/collections/{name}/documents/{id}", h.upsertDocument)
			r.Delete("/collections/{name}/documents/{id}", h.deleteDocument)
			r.Post("/batch", h.batchWrite)
		})
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

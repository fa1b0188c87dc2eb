package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	q, err := models.ParseQuery(r.URL.Query().Get("where"), r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	records, err := h.documents.GetCollection(r.Context(), name, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Records []models.Record `json:"records"`
	}{Records: records})
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")

	doc, err := h.documents.GetDocument(r.Context(), name, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var doc models.Record
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, fmt.Errorf("%w: invalid document body", common.ErrorValidation))
		return
	}

	id, err := h.documents.AddDocument(r.Context(), name, doc)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")

	var fields models.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, fmt.Errorf("%w: invalid document body", common.ErrorValidation))
		return
	}

	if err := h.documents.UpdateDocument(r.Context(), name, id, fields); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) upsertDocument(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")

	var doc models.Record
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, fmt.Errorf("%w: invalid document body", common.ErrorValidation))
		return
	}

	if err := h.documents.UpsertDocument(r.Context(), name, id, doc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "name"), chi.URLParam(r, "id")

	if err := h.documents.DeleteDocument(r.Context(), name, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) batchWrite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operations []models.BatchOperation `json:"operations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid batch body", common.ErrorValidation))
		return
	}
	if len(req.Operations) == 0 {
		writeError(w, fmt.Errorf("%w: empty batch", common.ErrorValidation))
		return
	}

	if claims, ok := claimsFromContext(r.Context()); ok {
		h.log.Debug(r.Context(), "batch write", "staff_id", claims.StaffID, "operations", len(req.Operations))
	}

	if err := h.documents.BatchWrite(r.Context(), req.Operations); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

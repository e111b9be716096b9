package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"recall/pkg/models"
	"recall/pkg/utils"
)

func (h *Handlers) getFacts(w http.ResponseWriter, r *http.Request) {
	subject := mux.Vars(r)["subject"]
	facts, err := h.deps.Store.GetFacts(r.Context(), subject)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, facts)
}

// putFact is the write path for the external fact-extraction pipeline;
// the engine itself only ever reads facts.
func (h *Handlers) putFact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var f models.Fact
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	f.SubjectID = vars["subject"]
	f.Key = vars["key"]
	if f.Value == "" {
		utils.JSONError(w, http.StatusBadRequest, "value is required")
		return
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		utils.JSONError(w, http.StatusBadRequest, "confidence out of range [0,1]")
		return
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}
	if err := h.deps.Store.PutFact(r.Context(), f); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, f)
}

func (h *Handlers) factHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hist, err := h.deps.Store.FactHistory(r.Context(), vars["subject"], vars["key"])
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hist == nil {
		hist = []models.Fact{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, hist)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"recall/pkg/classify"
	"recall/pkg/logger"
	"recall/pkg/models"
	"recall/pkg/utils"
	"recall/pkg/validation"
)

func (h *Handlers) createMessage(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]

	var m models.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateInbound(validation.Inbound{
		SenderID: m.SenderID,
		Content:  m.Content,
		Role:     string(m.Role),
	}); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.ConversationID = convID
	if m.ID == "" {
		m.ID = utils.GenMessageID()
	}
	if m.TS.IsZero() {
		m.TS = time.Now().UTC()
	}
	if m.Role == "" {
		m.Role = models.RoleUser
	}
	if m.SenderID == h.deps.Engine.AgentID {
		m.Role = models.RoleAgent
	}
	// tag topics at ingest so history scans never re-classify
	m.Topics = classify.Topics(m.Content)

	if err := h.deps.Store.AppendMessage(r.Context(), convID, m); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("message_created", zap.String("conv", convID), zap.String("id", m.ID))
	_ = utils.JSONWrite(w, http.StatusOK, m)
}

func (h *Handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := h.deps.Store.ListMessages(r.Context(), convID, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

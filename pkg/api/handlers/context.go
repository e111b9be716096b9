package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"recall/pkg/alias"
	"recall/pkg/logger"
	"recall/pkg/models"
	"recall/pkg/utils"
)

// contextRequest is the canonicalized query the engine receives; the
// transport adapter has already flattened SDK-specific shapes.
type contextRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name,omitempty"`
	ReplyTo        string `json:"reply_to,omitempty"`
}

func (h *Handlers) buildContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ConversationID == "" {
		utils.JSONError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	query := models.Message{
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		SenderName:     req.SenderName,
		Content:        req.Text,
		ReplyTo:        req.ReplyTo,
		TS:             time.Now().UTC(),
		Role:           models.RoleUser,
	}
	win, err := h.deps.Assembler.BuildContext(r.Context(), query)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Debug("context_built",
		zap.String("conv", req.ConversationID),
		zap.Int("entries", win.Len()),
		zap.Strings("degraded", win.Degraded),
	)
	_ = utils.JSONWrite(w, http.StatusOK, win)
}

func (h *Handlers) resolveParticipants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		utils.JSONError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	cands, err := h.deps.Assembler.ResolveParticipants(r.Context(), q)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cands == nil {
		cands = []alias.Candidate{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"query": q, "candidates": cands})
}

package handlers

import (
	"net/http"
	"sort"
	"time"

	"recall/pkg/models"
	"recall/pkg/utils"
)

// conversationSummary is the list-view projection of a conversation.
type conversationSummary struct {
	ID            string      `json:"id"`
	Kind          models.Kind `json:"kind"`
	DisplayName   string      `json:"display_name,omitempty"`
	Participants  int         `json:"participants"`
	LastActiveAt  time.Time   `json:"last_active_at"`
	HasIntroduced bool        `json:"has_introduced"`
}

func (h *Handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.deps.Store.ListConversations(r.Context())
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]conversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, conversationSummary{
			ID:            c.ID,
			Kind:          c.Kind,
			DisplayName:   c.DisplayName,
			Participants:  len(c.Participants),
			LastActiveAt:  c.LastActiveAt,
			HasIntroduced: c.HasIntroduced,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

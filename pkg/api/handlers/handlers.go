// Package handlers implements the /v1 HTTP endpoints: message ingest,
// conversation listing, fact read/write and the context build entry
// point.
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"recall/pkg/config"
	"recall/pkg/relevance"
	"recall/pkg/store"
)

// Deps carries the wired collaborators handlers operate on.
type Deps struct {
	Store     *store.Store
	Assembler *relevance.Assembler
	Engine    config.EngineConfig
}

// Handlers binds the dependency set to the endpoint implementations.
type Handlers struct {
	deps Deps
}

// New returns the handler set for the given dependencies.
func New(deps Deps) *Handlers { return &Handlers{deps: deps} }

// Register attaches every endpoint to the given (typically /v1) router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", h.createMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", h.listMessages).Methods(http.MethodGet)

	r.HandleFunc("/context", h.buildContext).Methods(http.MethodPost)
	r.HandleFunc("/participants/resolve", h.resolveParticipants).Methods(http.MethodGet)

	r.HandleFunc("/facts/{subject}", h.getFacts).Methods(http.MethodGet)
	r.HandleFunc("/facts/{subject}/{key}", h.putFact).Methods(http.MethodPut)
	r.HandleFunc("/facts/{subject}/{key}/history", h.factHistory).Methods(http.MethodGet)
}

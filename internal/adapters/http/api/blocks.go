// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// BlocksHandler handles block registry requests.
type BlocksHandler struct {
	deps BlockDependencies
}

// NewBlocksHandler creates a new blocks handler.
func NewBlocksHandler(deps BlockDependencies) *BlocksHandler {
	return &BlocksHandler{deps: deps}
}

// HandleBlockByID routes GET and DELETE /blocks/{id}.
func (h *BlocksHandler) HandleBlockByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/blocks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodDelete:
		h.handleUnblock(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *BlocksHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_block"
	entry, err := h.deps.BlockEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *BlocksHandler) handleUnblock(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.unblock"
	if err := h.deps.Unblock(r.Context(), id); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "unblocked"})
}

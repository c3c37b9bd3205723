package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/inspector"
	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/telemetry"
)

type handlers struct {
	source  Source
	metrics *metrics.Recorder
}

// entityResponse pairs an entity with its inspector fields.
type entityResponse struct {
	Tick   int32                 `json:"tick"`
	Entity telemetry.EntityState `json:"entity"`
	Fields []inspector.Field     `json:"fields"`
}

type cardResponse struct {
	Card  string `json:"card"`
	Kind  string `json:"kind,omitempty"`
	Count int    `json:"count,omitempty"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	var tick int32
	if snap := h.source.Published(); snap != nil {
		tick = snap.Tick
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": tick})
}

func (h *handlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Published()
	if snap == nil {
		writeError(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) handleEntity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, "invalid entity id", http.StatusBadRequest)
		return
	}
	snap := h.source.Published()
	if snap == nil {
		writeError(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	for _, e := range snap.Entities {
		if e.ID != uint32(id) {
			continue
		}
		writeJSON(w, http.StatusOK, entityResponse{
			Tick:   snap.Tick,
			Entity: e,
			Fields: inspector.ExtractFields(e),
		})
		return
	}
	writeError(w, "entity not found", http.StatusNotFound)
}

// handleCard queues a card. Query parameters: kind (spawn) and count.
func (h *handlers) handleCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count := 0
	if s := q.Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, "invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}

	card, err := game.ParseCard(chi.URLParam(r, "card"), q.Get("kind"), count)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.source.Enqueue(card); err != nil {
		if errors.Is(err, game.ErrCardQueueFull) {
			h.metrics.RecordRejected("card_queue")
			w.Header().Set("Retry-After", "1")
			writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := cardResponse{Card: card.Name, Count: card.Count}
	if card.Name == game.CardSpawn {
		resp.Kind = card.Kind.String()
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

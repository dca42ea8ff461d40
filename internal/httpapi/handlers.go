package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/outsider-backend/internal/archive"
	"github.com/DoyleJ11/outsider-backend/internal/engine"
	"github.com/DoyleJ11/outsider-backend/internal/hub"
	"github.com/DoyleJ11/outsider-backend/internal/ident"
)

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
	maxIDAttempts      = 10
)

type RoomSuggestion struct {
	RoomID string `json:"roomId"`
	Avatar string `json:"avatar"`
}

type RoomSummary struct {
	RoomID       string                `json:"roomId"`
	Phase        engine.Phase          `json:"phase"`
	CurrentCount int                   `json:"currentCount"`
	Capacity     int                   `json:"capacity"`
	Players      []engine.PublicPlayer `json:"players"`
}

// SuggestRoom hands out a room id that is free right now plus an avatar
// suggestion. The id is not reserved; createRoom can still lose a race for it.
func SuggestRoom(h *hub.Hub, newID func() (string, error), log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for range maxIDAttempts {
			id, err := newID()
			if err != nil {
				log.Error("generate room id", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to generate room id")
				return
			}
			_, err = h.Get(r.Context(), id)
			switch {
			case errors.Is(err, engine.ErrRoomNotFound):
				writeJSON(w, http.StatusCreated, RoomSuggestion{RoomID: id, Avatar: ident.PickAvatar("")})
				return
			case err != nil:
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			log.Debug("collision on room id, regenerating", zap.String("room", id))
		}
		writeError(w, http.StatusServiceUnavailable, "no free room id, try again")
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		lb, err := h.Get(r.Context(), id)
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, engine.ErrRoomNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		v, err := lb.View(r.Context())
		if err != nil {
			// The room closed between lookup and view.
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, RoomSummary{
			RoomID:       v.Room.ID,
			Phase:        v.Room.Phase,
			CurrentCount: len(v.Room.Players),
			Capacity:     v.Room.Capacity,
			Players:      v.Room.Roster(),
		})
	}
}

func Results(rec archive.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultResultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxResultLimit)
		}

		results, err := rec.Recent(r.Context(), limit)
		if err != nil {
			log.Error("load recent results", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load results")
			return
		}
		if results == nil {
			results = []archive.Result{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/storage"
)

type handler struct {
	store  Store
	logger *slog.Logger
}

// GET /health
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/games
func (h *handler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.ListGames()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if games == nil {
		games = []model.GameSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "count": len(games)})
}

// GET /api/v1/games/{game}
func (h *handler) getGame(w http.ResponseWriter, r *http.Request) {
	game, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// GET /api/v1/games/{game}/windows?filtered=true
func (h *handler) getWindows(w http.ResponseWriter, r *http.Request) {
	game, ok := h.lookup(w, r)
	if !ok {
		return
	}
	filtered := false
	if v := r.URL.Query().Get("filtered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "filtered must be a boolean")
			return
		}
		filtered = b
	}
	rows, err := h.store.GetPlayWindows(game.Game, filtered)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if rows == nil {
		rows = []storage.WindowRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": game.Game, "windows": rows, "count": len(rows)})
}

// GET /api/v1/games/{game}/players
func (h *handler) getPlayers(w http.ResponseWriter, r *http.Request) {
	game, ok := h.lookup(w, r)
	if !ok {
		return
	}
	stats, err := h.store.GetPlayerPassStats(game.Game)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if stats == nil {
		stats = []model.PlayerPassStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"game": game.Game, "players": stats, "count": len(stats)})
}

// GET /api/v1/players?name=First+Last&name=...
func (h *handler) getPlayerTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.PlayerPassTotals(r.URL.Query()["name"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if totals == nil {
		totals = []storage.PlayerTotals{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": totals, "count": len(totals)})
}

// lookup resolves the {game} URL parameter as a name prefix. It writes the
// error response itself and reports whether the caller should continue.
func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*model.GameSummary, bool) {
	prefix := chi.URLParam(r, "game")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "game is required")
		return nil, false
	}
	game, err := h.store.GetGameByPrefix(prefix)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if game == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return nil, false
	}
	return game, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("api query failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

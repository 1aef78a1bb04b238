// Copyright 2024-2026 Aiku AI

// Package api provides the ops HTTP endpoints: a health check and a
// read-only stats snapshot.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aiku/matrix-linkbot/pkg/bot"
)

// Handler serves the ops API.
type Handler struct {
	store    bot.Store
	sessions *bot.Sessions
	log      zerolog.Logger
}

// NewHandler creates the ops API handler.
func NewHandler(store bot.Store, sessions *bot.Sessions, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// Router builds the chi router with all ops routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Get("/healthz", h.health)
	r.Get("/api/stats", h.stats)
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statsResponse struct {
	Accounts       int `json:"accounts"`
	BoundAccounts  int `json:"bound_accounts"`
	Buttons        int `json:"buttons"`
	ActiveSessions int `json:"active_sessions"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.store.ListAccounts(ctx)
	if err != nil {
		h.log.Err(err).Msg("Failed to list accounts for stats")
		JSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}
	buttons, err := h.store.Buttons(ctx, false)
	if err != nil {
		h.log.Err(err).Msg("Failed to list buttons for stats")
		JSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}
	bound := 0
	for _, acct := range accounts {
		if acct.Identity != "" {
			bound++
		}
	}
	JSON(w, http.StatusOK, statsResponse{
		Accounts:       len(accounts),
		BoundAccounts:  bound,
		Buttons:        len(buttons),
		ActiveSessions: h.sessions.ActiveCount(),
	})
}

// Package server exposes the negotiation service over plain JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/nirmal141/negotAItion/internal/logger"
	"github.com/nirmal141/negotAItion/internal/money"
	"github.com/nirmal141/negotAItion/internal/negotiator"
	"github.com/nirmal141/negotAItion/internal/progress"
	"github.com/nirmal141/negotAItion/internal/session"
	"github.com/nirmal141/negotAItion/internal/store"
	"github.com/nirmal141/negotAItion/internal/strategy"
)

// Service is the negotiation engine behind the HTTP surface.
type Service interface {
	StartSession(ctx context.Context) (*session.Session, error)
	Round(ctx context.Context, sess *session.Session, req negotiator.Request) (*session.Session, error)
}

// Server wires the service and the store into HTTP handlers. At most one
// offer per session may be in flight at a time; a second submission gets a
// 409 instead of racing the first.
type Server struct {
	svc   Service
	store *store.Store

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New builds a server over the given service and store.
func New(svc Service, st *store.Store) *Server {
	return &Server{svc: svc, store: st, inFlight: make(map[string]struct{})}
}

// Routes returns the request mux for the negotiation API.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /negotiations/start", s.handleStart)
	mux.HandleFunc("GET /negotiations", s.handleList)
	mux.HandleFunc("GET /negotiations/{id}", s.handleGet)
	mux.HandleFunc("POST /negotiations/{id}/offer", s.handleOffer)
	mux.HandleFunc("GET /negotiations/{id}/offers", s.handleSynthesize)
	mux.HandleFunc("DELETE /negotiations/{id}", s.handleDelete)
	return mux
}

// maskedSession embeds the session for marshaling but drops its stored
// progress score from the payload, so the derived one below is the only
// progress_score emitted.
type maskedSession struct {
	*session.Session
	ProgressScore int `json:"-"`
}

// sessionView is the API shape of a session. The progress score is derived at
// render time so a settled session always reads 100.
type sessionView struct {
	maskedSession
	ProgressScore int    `json:"progress_score"`
	ProgressBand  string `json:"progress_band"`
	ProgressTone  string `json:"progress_tone"`
}

func view(sess *session.Session) sessionView {
	score := progress.Score(sess)
	return sessionView{
		maskedSession: maskedSession{Session: sess},
		ProgressScore: score,
		ProgressBand:  string(progress.BandOf(score)),
		ProgressTone:  string(progress.ToneOf(score)),
	}
}

type sessionSummary struct {
	ID            string  `json:"negotiation_id"`
	Rounds        int     `json:"rounds"`
	ProgressScore int     `json:"progress_score"`
	Settled       bool    `json:"settled"`
	AgreedPrice   *string `json:"agreed_price,omitempty"`
	LastUpdated   string  `json:"last_updated"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.StartSession(r.Context())
	if err != nil {
		logger.L.Error("failed to start negotiation", "error", err)
		http.Error(w, "failed to start negotiation", http.StatusInternalServerError)
		return
	}
	if err := s.store.Put(sess); err != nil {
		logger.L.Error("failed to persist new negotiation", "error", err)
		http.Error(w, "failed to persist negotiation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "negotiation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.List()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		sum := sessionSummary{
			ID:            sess.ID,
			Rounds:        sess.Metrics.Rounds,
			ProgressScore: progress.Score(sess),
			Settled:       sess.Terminal(),
			LastUpdated:   sess.LastUpdated.Format(time.RFC3339),
		}
		if sess.AgreedPrice != nil {
			p := money.Format(*sess.AgreedPrice)
			sum.AgreedPrice = &p
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, map[string]any{"negotiations": out})
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req negotiator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !s.acquire(id) {
		http.Error(w, "an offer for this negotiation is already being processed", http.StatusConflict)
		return
	}
	defer s.release(id)

	sess, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "negotiation not found", http.StatusNotFound)
		return
	}

	updated, err := s.svc.Round(r.Context(), sess, req)
	if err != nil {
		// The stored session is untouched; only the error is surfaced.
		switch {
		case errors.Is(err, negotiator.ErrInvalidOfferIndex),
			errors.Is(err, negotiator.ErrUnknownStrategy):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, negotiator.ErrTerminal):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.L.Error("failed to process offer", "id", id, "error", err)
			http.Error(w, "failed to process offer", http.StatusInternalServerError)
		}
		return
	}

	if err := s.store.Put(updated); err != nil {
		logger.L.Error("failed to persist negotiation", "id", id, "error", err)
		http.Error(w, "failed to persist negotiation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view(updated))
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	strat, ok := strategy.Parse(r.URL.Query().Get("strategy"))
	if !ok {
		http.Error(w, "unknown strategy", http.StatusBadRequest)
		return
	}
	sess, found := s.store.Get(r.PathValue("id"))
	if !found {
		http.Error(w, "negotiation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"strategy": string(strat),
		"offers":   negotiator.SynthesizeOffers(sess, strat),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("id")) {
		http.Error(w, "negotiation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Server) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("failed to encode response", "error", err)
	}
}

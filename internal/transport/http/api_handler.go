package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
)

// PinHeader carries the admin PIN on admin requests.
const PinHeader = "X-Admin-Pin"

// APIHandler serves the catalog, leaderboard and admin endpoints.
type APIHandler struct {
	catalog *app.Catalog
}

func NewAPIHandler(catalog *app.Catalog) *APIHandler {
	return &APIHandler{catalog: catalog}
}

// NewRouter wires the REST API, the websocket endpoint and the health check.
func NewRouter(service *app.GameService) *mux.Router {
	router := mux.NewRouter()
	api := NewAPIHandler(service.Catalog())
	api.Register(router)
	router.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return router
}

func (h *APIHandler) Register(router *mux.Router) {
	router.HandleFunc("/api/rounds", h.ListRounds).Methods(http.MethodGet)
	router.HandleFunc("/api/categories", h.ListCategories).Methods(http.MethodGet)
	router.HandleFunc("/api/leaderboard", h.Leaderboard).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/verify", h.VerifyPin).Methods(http.MethodPost)

	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.requirePin)
	admin.HandleFunc("/questions", h.ListQuestions).Methods(http.MethodGet)
	admin.HandleFunc("/questions", h.CreateQuestion).Methods(http.MethodPost)
	admin.HandleFunc("/questions/{id}", h.DeleteQuestion).Methods(http.MethodDelete)
	admin.HandleFunc("/rounds", h.CreateRound).Methods(http.MethodPost)
	admin.HandleFunc("/rounds/{id}", h.DeleteRound).Methods(http.MethodDelete)
	admin.HandleFunc("/leaderboard", h.ClearLeaderboard).Methods(http.MethodDelete)
	admin.HandleFunc("/pin", h.UpdatePin).Methods(http.MethodPut)
}

type categoryView struct {
	ID    domain.Category `json:"id"`
	Label string          `json:"label"`
}

type pinRequest struct {
	Pin string `json:"pin"`
}

type pinUpdateRequest struct {
	OldPin string `json:"oldPin"`
	NewPin string `json:"newPin"`
}

type roundRequest struct {
	Name           string                  `json:"name"`
	QuestionCounts map[domain.Category]int `json:"questionCounts"`
}

func (h *APIHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Rounds())
}

func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]categoryView, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		categories = append(categories, categoryView{ID: c, Label: c.Label()})
	}
	writeJSON(w, http.StatusOK, categories)
}

// Leaderboard optionally filters by the roundId query parameter.
func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	players := h.catalog.Leaderboard()
	if roundID := r.URL.Query().Get("roundId"); roundID != "" {
		players = h.catalog.LeaderboardForRound(roundID)
	}
	if players == nil {
		players = []domain.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Stats())
}

func (h *APIHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.catalog.VerifyPin(req.Pin)})
}

// ListQuestions returns questions with their answer keys, for admins only.
func (h *APIHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Questions())
}

func (h *APIHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.catalog.AddQuestion(q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteQuestion(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) CreateRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	round, err := h.catalog.AddRound(req.Name, req.QuestionCounts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

func (h *APIHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteRound(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ClearLeaderboard(w http.ResponseWriter, r *http.Request) {
	h.catalog.ClearLeaderboard()
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) UpdatePin(w http.ResponseWriter, r *http.Request) {
	var req pinUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPin == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !h.catalog.UpdatePin(req.OldPin, req.NewPin) {
		writeError(w, domain.ErrInvalidPin)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) requirePin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.catalog.VerifyPin(r.Header.Get(PinHeader)) {
			writeError(w, domain.ErrInvalidPin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRound), errors.Is(err, domain.ErrInvalidQuestion):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidPin):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrRoundNotFound), errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	default:
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

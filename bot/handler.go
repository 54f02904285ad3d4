package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/artfreyr/kap-bot/clock"
	"github.com/artfreyr/kap-bot/db"
	"github.com/artfreyr/kap-bot/schedule"
)

type ScheduleReader interface {
	ListSchedule(ctx context.Context, date string) ([]db.ScheduleEntry, error)
}

type CycleRunner interface {
	RunCycle(ctx context.Context) (int, error)
}

type apiHandler struct {
	store     ScheduleReader
	refresher CycleRunner
	clock     clock.Clock
	log       *zap.Logger
}

// NewRouter exposes the operator endpoints.
func NewRouter(store ScheduleReader, refresher CycleRunner, clock clock.Clock, log *zap.Logger) *mux.Router {
	h := &apiHandler{
		store:     store,
		refresher: refresher,
		clock:     clock,
		log:       log.With(zap.String("component", "api")),
	}
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/health").HandlerFunc(h.health)
	router.Methods(http.MethodGet).Path("/schedule").HandlerFunc(h.schedule)
	router.Methods(http.MethodPost).Path("/refresh").HandlerFunc(h.refresh)
	return router
}

func (h *apiHandler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte("ok"))
	if err != nil {
		h.log.Warn("error during write health", zap.Error(err))
	}
}

func (h *apiHandler) schedule(w http.ResponseWriter, r *http.Request) {
	date := r.FormValue("date")
	if date == "" {
		date = h.clock.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	entries, err := h.store.ListSchedule(r.Context(), date)
	if err != nil {
		h.log.Error("unable to list schedule", zap.String("date", date), zap.Error(err))
		http.Error(w, "unable to list schedule", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []db.ScheduleEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *apiHandler) refresh(w http.ResponseWriter, r *http.Request) {
	count, err := h.refresher.RunCycle(r.Context())
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]int{"entries": count})
	case errors.Is(err, schedule.ErrLocked):
		http.Error(w, "refresh already running", http.StatusConflict)
	case errors.Is(err, schedule.ErrFetchFailed):
		h.log.Error("manual refresh failed", zap.Error(err))
		http.Error(w, "unable to fetch feed", http.StatusBadGateway)
	default:
		h.log.Error("manual refresh failed", zap.Error(err))
		http.Error(w, "unable to store schedule", http.StatusInternalServerError)
	}
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("error during write response", zap.Error(err))
	}
}

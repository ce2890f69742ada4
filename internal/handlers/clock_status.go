package handlers

import (
	"encoding/json"
	"net/http"

	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ClockStatusHandler — опрашиваемый кворумом статус clock кошелька.
type ClockStatusHandler struct {
	Users   repo.UserRepository
	Lock    service.WalletLock
	History *service.JobHistory
	Logger  *zap.SugaredLogger
}

func NewClockStatusHandler(users repo.UserRepository, lock service.WalletLock,
	history *service.JobHistory, logger *zap.SugaredLogger) *ClockStatusHandler {
	return &ClockStatusHandler{Users: users, Lock: lock, History: history, Logger: logger}
}

type clockStatusDebug struct {
	service.ClockStatusResponse
	RecentJobs []jobRecordDTO `json:"recentJobs,omitempty"`
}

type jobRecordDTO struct {
	Wallet   string `json:"wallet"`
	SyncType string `json:"syncType"`
	Outcome  string `json:"outcome"`
}

// Status — GET /users/clock_status/{wallet}[?verbose=true].
// clockValue = -1 означает неизвестного пользователя.
func (h *ClockStatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	if wallet == "" {
		http.Error(w, "wallet required", http.StatusBadRequest)
		return
	}

	clock, err := h.Users.LocalClock(r.Context(), wallet)
	if err != nil {
		h.Logger.Errorw("clock_status: db error", "wallet", wallet, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := clockStatusDebug{
		ClockStatusResponse: service.ClockStatusResponse{
			ClockValue:     clock,
			SyncInProgress: h.Lock.Held(wallet),
		},
	}
	if r.URL.Query().Get("verbose") == "true" {
		for _, rec := range h.History.Recent() {
			if rec.Job.Wallet != wallet {
				continue
			}
			resp.RecentJobs = append(resp.RecentJobs, jobRecordDTO{
				Wallet:   rec.Job.Wallet,
				SyncType: rec.Job.SyncType,
				Outcome:  string(rec.Outcome),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

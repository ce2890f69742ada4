package handlers

import (
	"encoding/json"
	"net/http"

	"ContentNode/internal/config"
	"ContentNode/internal/service"

	"go.uber.org/zap"
)

// SyncHandler принимает заявки на синхронизацию (secondary-сторона).
type SyncHandler struct {
	Queue     *service.SyncQueue
	Debouncer *service.Debouncer
	Logger    *zap.SugaredLogger
	Config    *config.Config
}

func NewSyncHandler(queue *service.SyncQueue, debouncer *service.Debouncer,
	logger *zap.SugaredLogger, cfg *config.Config) *SyncHandler {
	return &SyncHandler{Queue: queue, Debouncer: debouncer, Logger: logger, Config: cfg}
}

// Sync — POST /sync. Отвечает 200, как только заявка выполнена (immediate)
// или поставлена в очередь (дебаунс). Успех самого импорта по этому ответу
// судить нельзя — только по clock_status и логам.
//
// Контракт: ровно один кошелёк на запрос. Батчи сознательно не
// поддерживаются — дедуп и дебаунс ключуются одним кошельком.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req service.SyncRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("sync: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Wallet) != 1 {
		http.Error(w, "exactly one wallet per sync request", http.StatusBadRequest)
		return
	}
	if req.ContentNodeEndpoint == "" {
		http.Error(w, "content_node_endpoint required", http.StatusBadRequest)
		return
	}

	wallet := req.Wallet[0]
	syncType := service.SyncTypeRecurring
	if req.SyncType == service.SyncTypeManual {
		syncType = service.SyncTypeManual
	}
	newJob := func() *service.SyncJob {
		return service.NewSyncJob(wallet, req.ContentNodeEndpoint,
			h.Config.SelfEndpoint, syncType, req.ForceResync)
	}

	if req.Immediate {
		done, ok := h.Queue.Enqueue(newJob())
		if ok {
			// Ждём исполнения, но итог на статус ответа не влияет.
			outcome := <-done
			h.Logger.Infow("immediate sync executed", "wallet", wallet, "outcome", outcome)
		}
	} else {
		h.Debouncer.Trigger(wallet, h.Config.DebounceInterval(), func() {
			h.Queue.Enqueue(newJob())
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"ContentNode/internal/service"

	"go.uber.org/zap"
)

// ExportHandler отдаёт срез состояния пользователей (primary-сторона).
type ExportHandler struct {
	Exports *service.ExportService
	Logger  *zap.SugaredLogger
}

func NewExportHandler(export *service.ExportService, logger *zap.SugaredLogger) *ExportHandler {
	return &ExportHandler{Exports: export, Logger: logger}
}

// Export — GET /export?wallet_public_key=<w>[,...]&clock_range_min=<int>
// [&clock_range_max=<int>][&force_export=true][&source_endpoint=<url>]
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	walletsParam := r.URL.Query().Get("wallet_public_key")
	if walletsParam == "" {
		http.Error(w, "wallet_public_key required", http.StatusBadRequest)
		return
	}
	wallets := strings.Split(walletsParam, ",")

	clockRangeMin := 1
	if v := r.URL.Query().Get("clock_range_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid clock_range_min", http.StatusBadRequest)
			return
		}
		clockRangeMin = n
	}
	clockRangeMax := 0 // 0 — пусть сервис обрежет конфигом
	if v := r.URL.Query().Get("clock_range_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid clock_range_max", http.StatusBadRequest)
			return
		}
		clockRangeMax = n
	}
	forceExport := r.URL.Query().Get("force_export") == "true"
	source := r.URL.Query().Get("source_endpoint")

	payload, err := h.Exports.Export(r.Context(), wallets, clockRangeMin, clockRangeMax, forceExport)
	if err != nil {
		h.Logger.Errorw("export failed",
			"wallets", walletsParam, "source", source, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Errorw("export: encode failed", "error", err)
	}
}

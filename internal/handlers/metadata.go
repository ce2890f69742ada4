package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ContentNode/internal/config"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"go.uber.org/zap"
)

// MetadataHandler — путь записи на primary: сохранить метаданные профиля
// и не отпускать клиента, пока кворум записи не подтверждён (если включён).
type MetadataHandler struct {
	Metadata *service.MetadataService
	Quorum   *service.QuorumCoordinator
	Replicas service.ReplicaSetResolver
	Users    repo.UserRepository
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

func NewMetadataHandler(metadata *service.MetadataService, quorum *service.QuorumCoordinator,
	replicas service.ReplicaSetResolver, users repo.UserRepository,
	logger *zap.SugaredLogger, cfg *config.Config) *MetadataHandler {
	return &MetadataHandler{
		Metadata: metadata, Quorum: quorum, Replicas: replicas,
		Users: users, Logger: logger, Config: cfg,
	}
}

type saveMetadataRequest struct {
	Wallet       string          `json:"wallet"`
	BlockchainID int64           `json:"blockchainId"`
	Metadata     json.RawMessage `json:"metadata"`
}

type saveMetadataResponse struct {
	MetadataMultihash string `json:"metadataMultihash"`
	Clock             int    `json:"clock"`
}

// SaveColivingUser — POST /coliving_users/metadata.
// Заголовки: Enforce-Write-Quorum (true|false, перекрывает конфиг),
// Polling-Duration-ms (бюджет ожидания кворума).
func (h *MetadataHandler) SaveColivingUser(w http.ResponseWriter, r *http.Request) {
	var req saveMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Wallet == "" || len(req.Metadata) == 0 {
		http.Error(w, "wallet and metadata required", http.StatusBadRequest)
		return
	}

	multihash, clock, err := h.Metadata.SaveColivingUserMetadata(
		r.Context(), req.Wallet, req.BlockchainID, req.Metadata)
	if err != nil {
		h.Logger.Errorw("save metadata failed", "wallet", req.Wallet, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	// Приоритет: заголовок запроса -> дефолт конфига.
	enforce := h.Config.EnforceWriteQuorum
	if v := r.Header.Get("Enforce-Write-Quorum"); v != "" {
		enforce = v == "true"
	}
	pollTimeout := time.Duration(0)
	if v := r.Header.Get("Polling-Duration-ms"); v != "" {
		if ms, perr := strconv.Atoi(v); perr == nil && ms > 0 {
			pollTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	secondaries := secondariesOf(h.Replicas.Endpoints(req.Wallet), h.Config.SelfEndpoint)
	if err := h.Quorum.EnforceWriteQuorum(r.Context(), req.Wallet, secondaries,
		clock, pollTimeout, enforce); err != nil {
		if enforce {
			// Кворум обязателен — запись считается неуспешной.
			h.Logger.Errorw("write quorum failed", "wallet", req.Wallet, "error", err)
			http.Error(w, "write quorum not met", http.StatusInternalServerError)
			return
		}
		h.Logger.Warnw("write quorum skipped", "wallet", req.Wallet, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(saveMetadataResponse{MetadataMultihash: multihash, Clock: clock})
}

// secondariesOf выкидывает собственный эндпоинт из replica set.
func secondariesOf(endpoints []string, self string) []string {
	var out []string
	for _, ep := range endpoints {
		if ep != self {
			out = append(out, ep)
		}
	}
	return out
}

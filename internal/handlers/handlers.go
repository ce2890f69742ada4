package handlers

import (
	"ContentNode/internal/config"
	"ContentNode/internal/middleware"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Services — всё, что нужно хендлерам. Собирается в main.
type Services struct {
	Export    *service.ExportService
	Queue     *service.SyncQueue
	Debouncer *service.Debouncer
	Metadata  *service.MetadataService
	Quorum    *service.QuorumCoordinator
	Replicas  service.ReplicaSetResolver
	Lock      service.WalletLock
	History   *service.JobHistory
	Blacklist service.Blacklist

	Users repo.UserRepository
	Files repo.FileRepository
}

// NewHandler разводящий для хендлеров
func NewHandler(s Services, logger *zap.SugaredLogger, cfg *config.Config) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	exportHandler := NewExportHandler(s.Export, logger)
	syncHandler := NewSyncHandler(s.Queue, s.Debouncer, logger, cfg)
	clockHandler := NewClockStatusHandler(s.Users, s.Lock, s.History, logger)
	contentHandler := NewContentHandler(s.Files, s.Blacklist, logger, cfg)
	metadataHandler := NewMetadataHandler(s.Metadata, s.Quorum, s.Replicas, s.Users, logger, cfg)

	r.Get("/health_check", HealthCheck)
	r.Get("/users/clock_status/{wallet}", clockHandler.Status)
	r.Get("/ipfs/{multihash}", contentHandler.Serve)

	// Межузловые маршруты под node-аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithNodeAuth(cfg.NodeAuthSecret))
		r.Get("/export", exportHandler.Export)
		r.Post("/sync", syncHandler.Sync)
	})

	// Путь записи (primary)
	r.Post("/coliving_users/metadata", metadataHandler.SaveColivingUser)

	return &Handler{Router: r}
}

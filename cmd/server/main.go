package main

import (
	"context"
	"net/http"
	"strings"

	"ContentNode/internal/config"
	"ContentNode/internal/handlers"
	"ContentNode/internal/middleware"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	sugar := logger.Sugar()
	middleware.SetLogger(sugar)
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	users := repo.NewUserRepository(gormDB)
	files := repo.NewFileRepository(gormDB)
	clocks := repo.NewClockStore(gormDB)
	exports := repo.NewExportRepository(gormDB)
	imports := repo.NewImportRepository(gormDB)

	nodeClient := service.NewNodeClient(cfg)
	lock := service.NewWalletLock()
	dedup := service.NewSyncDeduplicator()
	history := service.NewJobHistory(500)
	debouncer := service.NewDebouncer()
	replicas := service.NewStaticReplicaSet(replicaFallback(cfg))
	fetcher := service.NewContentFetcher(
		&http.Client{Timeout: cfg.FetchTimeout()}, cfg.StorageDir, sugar)

	exportSvc := service.NewExportService(exports, clocks, cfg, sugar)
	syncSvc := service.NewSyncService(users, imports, clocks, lock, nodeClient,
		fetcher, replicas, cfg, sugar)
	metadataSvc := service.NewMetadataService(clocks, cfg.StorageDir, sugar)
	quorum := service.NewQuorumCoordinator(nodeClient, cfg, sugar)

	queue := service.NewSyncQueue(syncSvc, dedup, history, cfg.SyncQueueSize, sugar)
	queue.Start(context.Background(), cfg.SyncConcurrency)
	defer queue.Stop()
	defer debouncer.Stop()

	h := handlers.NewHandler(handlers.Services{
		Export:    exportSvc,
		Queue:     queue,
		Debouncer: debouncer,
		Metadata:  metadataSvc,
		Quorum:    quorum,
		Replicas:  replicas,
		Lock:      lock,
		History:   history,
		Blacklist: service.AllowAll{},
		Users:     users,
		Files:     files,
	}, sugar, cfg)

	sugar.Infow("Starting content node",
		"addr", cfg.BaseURL,
		"selfEndpoint", cfg.SelfEndpoint,
		"syncConcurrency", cfg.SyncConcurrency,
		"enforceWriteQuorum", cfg.EnforceWriteQuorum,
	)

	if err := http.ListenAndServe(cfg.BaseURL, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}

// replicaFallback — дефолтный replica set из env REPLICA_SET_ENDPOINTS
// (через запятую). Настоящий резолвер живёт в discovery-слое.
func replicaFallback(cfg *config.Config) []string {
	raw := cfg.ReplicaSetEndpoints
	if raw == "" {
		return nil
	}
	var out []string
	for _, ep := range strings.Split(raw, ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			out = append(out, ep)
		}
	}
	return out
}

package handlers

import (
	"net/http"
	"path/filepath"

	"ContentNode/internal/config"
	"ContentNode/internal/repo"
	"ContentNode/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContentHandler раздаёт content-addressed блобы. Blacklist применяется
// здесь, при раздаче: синхронизация реплицирует и заблокированный контент,
// иначе самому blacklist-состоянию не на чем разъезжаться по сети.
type ContentHandler struct {
	Files     repo.FileRepository
	Blacklist service.Blacklist
	Logger    *zap.SugaredLogger
	Config    *config.Config
}

func NewContentHandler(files repo.FileRepository, blacklist service.Blacklist,
	logger *zap.SugaredLogger, cfg *config.Config) *ContentHandler {
	return &ContentHandler{Files: files, Blacklist: blacklist, Logger: logger, Config: cfg}
}

// Serve — GET /ipfs/{multihash}
func (h *ContentHandler) Serve(w http.ResponseWriter, r *http.Request) {
	multihash := chi.URLParam(r, "multihash")
	if multihash == "" {
		http.Error(w, "multihash required", http.StatusBadRequest)
		return
	}
	if !h.Blacklist.IsServable(multihash) {
		http.Error(w, "content not servable", http.StatusForbidden)
		return
	}

	f, err := h.Files.GetByMultihash(r.Context(), multihash)
	if err != nil {
		h.Logger.Errorw("content: db error", "multihash", multihash, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if f == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	full := f.StoragePath
	if !filepath.IsAbs(full) {
		full = filepath.Join(h.Config.StorageDir, f.StoragePath)
	}
	http.ServeFile(w, r, full)
}
